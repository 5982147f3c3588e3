package service

import (
	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/shopspring/decimal"
)

// 價格含稅，淨額 = total / (1 + 稅率)
var taxDivisor = decimal.RequireFromString(constants.TaxRate).Add(decimal.NewFromInt(1))

// Totals 購物車顯示用的衍生數值
type Totals struct {
	Count      int   `json:"count"`
	GrandTotal int64 `json:"grand_total"`
	Net        int64 `json:"net"`
	Tax        int64 `json:"tax"`
}

func LineTotal(line model.CartLine) int64 {
	return line.LineTotal()
}

func GrandTotal(lines []model.CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += LineTotal(l)
	}
	return total
}

// NetAmount 只在總額上四捨五入一次，不逐行計算
func NetAmount(grandTotal int64) int64 {
	return decimal.NewFromInt(grandTotal).Div(taxDivisor).Round(0).IntPart()
}

// TaxAmount 以差額計算，net + tax 一定等於 total
func TaxAmount(grandTotal int64) int64 {
	return grandTotal - NetAmount(grandTotal)
}

func Calculate(lines []model.CartLine) Totals {
	total := GrandTotal(lines)
	net := NetAmount(total)
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return Totals{
		Count:      count,
		GrandTotal: total,
		Net:        net,
		Tax:        total - net,
	}
}
