package service

import (
	"context"
	"sync"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type ICatalogAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ImageURL(image string) string
}

// IProductLookup 購物車只需要查詢目錄快照
type IProductLookup interface {
	Find(id int) (model.Product, bool)
}

type Shelf struct {
	Category constants.Category
	Products []model.Product
}

// CatalogService 保存最後一次取得的商品快照，庫存可能已過期
type CatalogService struct {
	api    ICatalogAPI
	logger *zerolog.Logger

	mu       sync.RWMutex
	products []model.Product
	group    singleflight.Group
}

func NewCatalogService(api ICatalogAPI, logger *zerolog.Logger) *CatalogService {
	if api == nil {
		panic("catalog api is nil")
	}
	if logger == nil {
		panic("catalog logger is nil")
	}
	return &CatalogService{api: api, logger: logger}
}

// Reload 同時間多次呼叫只會送出一次請求
func (s *CatalogService) Reload(ctx context.Context) ([]model.Product, error) {
	v, err, shared := s.group.Do("products", func() (interface{}, error) {
		products, err := s.api.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.products = products
		s.mu.Unlock()
		return products, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("reload catalog failed")
		return nil, err
	}
	s.logger.Debug().Int("products", len(v.([]model.Product))).Bool("shared", shared).Msg("catalog reloaded")
	return cloneProducts(v.([]model.Product)), nil
}

func (s *CatalogService) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products)
}

func (s *CatalogService) Find(id int) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// ByCategory category 為 "all" 或空字串時回傳全部
func (s *CatalogService) ByCategory(category string) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if category == "" || category == constants.AllCategories {
		return cloneProducts(s.products)
	}
	res := make([]model.Product, 0)
	for _, p := range s.products {
		if p.Category == category {
			res = append(res, p)
		}
	}
	return res
}

// Shelves 依固定分類順序分組，沒有商品的分類不列出
func (s *CatalogService) Shelves() []Shelf {
	shelves := make([]Shelf, 0, len(constants.Categories))
	for _, c := range constants.Categories {
		products := s.ByCategory(c.ID)
		if len(products) == 0 {
			continue
		}
		shelves = append(shelves, Shelf{Category: c, Products: products})
	}
	return shelves
}

// Featured 前 n 個有庫存的商品
func (s *CatalogService) Featured(n int) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Product, 0, n)
	for _, p := range s.products {
		if len(res) >= n {
			break
		}
		if p.InStock() {
			res = append(res, p)
		}
	}
	return res
}

func (s *CatalogService) ImageURL(p model.Product) string {
	image := p.Image
	if image == "" {
		image = constants.DefaultProductImage
	}
	return s.api.ImageURL(image)
}

func cloneProducts(products []model.Product) []model.Product {
	res := make([]model.Product, len(products))
	copy(res, products)
	return res
}
