package store

import (
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// DefaultProducts 沒有指定種子檔時使用
func DefaultProducts() []model.Product {
	return []model.Product{
		{ID: 1, Name: "Pino", Category: "horno", Price: 2500, Stock: 20, Image: "pino.jpg"},
		{ID: 2, Name: "Queso", Category: "frita", Price: 2000, Stock: 15, Image: "queso.jpg"},
		{ID: 3, Name: "Camarón Queso", Category: "frita", Price: 2800, Stock: 0, Image: "camaron.jpg"},
		{ID: 4, Name: "Napolitana", Category: "horno", Price: 2200, Stock: 10, Image: "napolitana.jpg"},
		{ID: 5, Name: "Bebida 500ml", Category: "bebida", Price: 1500, Stock: 50, Image: "bebida.jpg"},
	}
}

type seedFile struct {
	Products []model.Product `yaml:"products"`
}

// LoadSeed 讀取 yaml 種子檔，path 為空時回傳預設商品
func LoadSeed(path string) ([]model.Product, error) {
	if path == "" {
		return DefaultProducts(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) ([]model.Product, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	seen := make(map[int]struct{}, len(f.Products))
	for _, p := range f.Products {
		if p.ID <= 0 || p.Name == "" {
			return nil, fmt.Errorf("seed product %d: id and name are required", p.ID)
		}
		if p.Price < 0 || p.Stock < 0 {
			return nil, fmt.Errorf("seed product %d: price and stock must be non-negative", p.ID)
		}
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("seed product %d: duplicated id", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return f.Products, nil
}
