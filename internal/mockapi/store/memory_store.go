package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
)

// MemoryStore 開發用，重啟後資料消失
type MemoryStore struct {
	mu       sync.RWMutex
	products []model.Product
	users    []UserRecord
	orders   []OrderRecord
}

func NewMemoryStore(seed []model.Product) *MemoryStore {
	return &MemoryStore{products: append([]model.Product(nil), seed...)}
}

func (s *MemoryStore) indexOfProduct(id int) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := append([]model.Product(nil), s.products...)
	sort.SliceStable(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id int) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOfProduct(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := s.products[i]
	return &p, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, p model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOfProduct(p.ID) >= 0 {
		return ErrDuplicate
	}
	s.products = append(s.products, p)
	return nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, id int, p model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfProduct(id)
	if i < 0 {
		return ErrNotFound
	}
	if p.ID != id && s.indexOfProduct(p.ID) >= 0 {
		return ErrDuplicate
	}
	s.products[i] = p
	return nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfProduct(id)
	if i < 0 {
		return ErrNotFound
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	return nil
}

func (s *MemoryStore) AddStock(_ context.Context, id int, quantity int) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOfProduct(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	s.products[i].Stock += quantity
	p := s.products[i]
	return &p, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	s.users = append(s.users, u)
	return nil
}

func (s *MemoryStore) FindUser(_ context.Context, identifier string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, identifier) || u.Name == identifier {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) PlaceOrder(_ context.Context, order OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 先全部檢查再扣，避免部分扣除
	// 同一商品可能出現在多行，以累計數量比對庫存
	requested := make(map[int]int, len(order.Items))
	for _, item := range order.Items {
		i := s.indexOfProduct(item.ProductID)
		if i < 0 {
			return &InsufficientStockError{ProductID: item.ProductID, ProductName: item.Name}
		}
		requested[item.ProductID] += item.Quantity
		if s.products[i].Stock < requested[item.ProductID] {
			return &InsufficientStockError{ProductID: item.ProductID, ProductName: s.products[i].Name}
		}
	}
	for _, item := range order.Items {
		s.products[s.indexOfProduct(item.ProductID)].Stock -= item.Quantity
	}

	order.Items = append([]model.OrderItem(nil), order.Items...)
	s.orders = append(s.orders, order)
	return nil
}

func (s *MemoryStore) ListOrders(_ context.Context, limit int) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.orders, func(OrderRecord) bool { return true }, limit), nil
}

func (s *MemoryStore) ListOrdersByEmail(_ context.Context, email string) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.orders, func(o OrderRecord) bool {
		return strings.EqualFold(o.CustomerEmail, email)
	}, 0), nil
}

func (s *MemoryStore) UpdateOrderStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Close() error { return nil }

func newestFirst(orders []OrderRecord, keep func(OrderRecord) bool, limit int) []model.Order {
	// 反向收集，時間相同時後建立的在前
	matched := make([]OrderRecord, 0, len(orders))
	for i := len(orders) - 1; i >= 0; i-- {
		if keep(orders[i]) {
			matched = append(matched, orders[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	res := make([]model.Order, 0, len(matched))
	for _, o := range matched {
		if limit > 0 && len(res) >= limit {
			break
		}
		o.Items = append([]model.OrderItem(nil), o.Items...)
		res = append(res, o.Order)
	}
	return res
}
