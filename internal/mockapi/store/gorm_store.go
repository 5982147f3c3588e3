package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null;type:varchar(255);index"`
	Email        string `gorm:"not null;type:varchar(255);uniqueIndex"`
	Role         string `gorm:"not null;type:varchar(20)"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type orderRow struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)"`
	CustomerEmail string         `gorm:"not null;type:varchar(255);index"`
	Total         int64          `gorm:"not null"`
	Status        string         `gorm:"not null;type:varchar(20)"`
	Items         []orderItemRow `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"index"`
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"not null;type:varchar(36);index"`
	ProductID int    `gorm:"not null"`
	Name      string `gorm:"not null;type:varchar(255)"`
	Price     int64  `gorm:"not null"`
	Quantity  int    `gorm:"not null"`
}

func (orderItemRow) TableName() string { return "order_items" }

func (r orderRow) toModel() model.Order {
	items := make([]model.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, model.OrderItem{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return model.Order{ID: r.ID, CustomerEmail: r.CustomerEmail, Items: items, Total: r.Total, Status: r.Status}
}

// GormStore postgres 儲存，扣庫存在同一個交易內完成
type GormStore struct {
	db *gorm.DB
}

func OpenGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return NewGormStore(db), nil
}

func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		panic("gorm db is nil")
	}
	return &GormStore{db: db}
}

// InitMigrate 建立 schema，可重複執行
func (s *GormStore) InitMigrate() error {
	return s.db.AutoMigrate(
		&model.Product{},
		&userRow{},
		&orderRow{},
		&orderItemRow{},
	)
}

// Seed 只在商品表為空時寫入
func (s *GormStore) Seed(ctx context.Context, products []model.Product) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 || len(products) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&products).Error
}

func (s *GormStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	products := make([]model.Product, 0)
	err := s.db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

func (s *GormStore) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	var p model.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, p model.Product) error {
	return translate(s.db.WithContext(ctx).Create(&p).Error)
}

func (s *GormStore) UpdateProduct(ctx context.Context, id int, p model.Product) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
			"id":       p.ID,
			"name":     p.Name,
			"category": p.Category,
			"price":    p.Price,
			"stock":    p.Stock,
			"image":    p.Image,
		})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) DeleteProduct(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AddStock(ctx context.Context, id int, quantity int) (*model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", id).Update("stock", gorm.Expr("stock + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&p, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u UserRecord) error {
	row := userRow{Name: u.Name, Email: strings.ToLower(u.Email), Role: u.Role, PasswordHash: u.PasswordHash}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *GormStore) FindUser(ctx context.Context, identifier string) (*UserRecord, error) {
	var row userRow
	err := s.db.WithContext(ctx).
		Where("email = ? OR name = ?", strings.ToLower(identifier), identifier).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &UserRecord{Name: row.Name, Email: row.Email, Role: row.Role, PasswordHash: row.PasswordHash}, nil
}

// PlaceOrder 以 SELECT ... FOR UPDATE 鎖住商品列後檢查並扣庫存
func (s *GormStore) PlaceOrder(ctx context.Context, order OrderRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			var p model.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, item.ProductID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &InsufficientStockError{ProductID: item.ProductID, ProductName: item.Name}
			}
			if err != nil {
				return err
			}
			if p.Stock < item.Quantity {
				return &InsufficientStockError{ProductID: p.ID, ProductName: p.Name}
			}
			if err := tx.Model(&model.Product{}).
				Where("id = ?", p.ID).
				Update("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		row := orderRow{
			ID:            order.ID,
			CustomerEmail: strings.ToLower(order.CustomerEmail),
			Total:         order.Total,
			Status:        order.Status,
			CreatedAt:     order.CreatedAt,
		}
		for _, item := range order.Items {
			row.Items = append(row.Items, orderItemRow{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}
		return tx.Create(&row).Error
	})
}

func (s *GormStore) ListOrders(ctx context.Context, limit int) ([]model.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return s.findOrders(q)
}

func (s *GormStore) ListOrdersByEmail(ctx context.Context, email string) ([]model.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").
		Where("customer_email = ?", strings.ToLower(email)).
		Order("created_at DESC")
	return s.findOrders(q)
}

func (s *GormStore) findOrders(q *gorm.DB) ([]model.Order, error) {
	var rows []orderRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]model.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toModel())
	}
	return orders, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, id, status string) error {
	res := s.db.WithContext(ctx).Model(&orderRow{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
