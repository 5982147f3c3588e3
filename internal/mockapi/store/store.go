package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// InsufficientStockError 下單時某個商品庫存不足
type InsufficientStockError struct {
	ProductID   int
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s)", e.ProductID, e.ProductName)
}

type UserRecord struct {
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

func (u UserRecord) User() model.User {
	return model.User{Name: u.Name, Email: u.Email, Role: u.Role}
}

// OrderRecord 訂單加上建立時間，列表依時間新到舊
type OrderRecord struct {
	model.Order
	CreatedAt time.Time
}

type IShopStore interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int) (*model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) error
	UpdateProduct(ctx context.Context, id int, p model.Product) error
	DeleteProduct(ctx context.Context, id int) error
	AddStock(ctx context.Context, id int, quantity int) (*model.Product, error)

	CreateUser(ctx context.Context, u UserRecord) error
	// FindUser identifier 可為 email 或名稱
	FindUser(ctx context.Context, identifier string) (*UserRecord, error)

	// PlaceOrder 檢查並扣除所有商品庫存後建立訂單，任一商品不足時全部不扣
	PlaceOrder(ctx context.Context, order OrderRecord) error
	ListOrders(ctx context.Context, limit int) ([]model.Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) error

	Close() error
}
