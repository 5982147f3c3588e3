package model

import "strings"

// Product 商品目錄的唯讀快照，庫存以伺服器為準
type Product struct {
	ID       int    `json:"id" yaml:"id" gorm:"primaryKey;autoIncrement:false"`
	Name     string `json:"name" yaml:"name" gorm:"not null;type:varchar(255)"`
	Category string `json:"category" yaml:"category" gorm:"not null;type:varchar(50);index"`
	Price    int64  `json:"price" yaml:"price" gorm:"not null"`
	Stock    int    `json:"stock" yaml:"stock" gorm:"not null;default:0"`
	Image    string `json:"image" yaml:"image" gorm:"type:varchar(512)"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

func (p Product) IsRemoteImage() bool {
	return strings.HasPrefix(p.Image, "http")
}
