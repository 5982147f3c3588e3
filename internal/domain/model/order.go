package model

import "time"

type OrderItem struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest POST /orders 的內容
type OrderRequest struct {
	CustomerEmail string      `json:"customer_email"`
	Items         []OrderItem `json:"items"`
	Total         int64       `json:"total"`
}

type Order struct {
	ID            string      `json:"id"`
	CustomerEmail string      `json:"customer_email"`
	Items         []OrderItem `json:"items"`
	Total         int64       `json:"total"`
	Status        string      `json:"status"`
}

// ShortID 畫面上只顯示末四碼
func (o Order) ShortID() string {
	if len(o.ID) <= 4 {
		return o.ID
	}
	return o.ID[len(o.ID)-4:]
}

type OrderReceipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

type StockRequest struct {
	Quantity int `json:"quantity"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

// OrderPlacedEvent 結帳成功後發布到 kafka
type OrderPlacedEvent struct {
	OrderID       string      `json:"order_id"`
	CustomerEmail string      `json:"customer_email"`
	Items         []OrderItem `json:"items"`
	Total         int64       `json:"total"`
	Net           int64       `json:"net"`
	Tax           int64       `json:"tax"`
	PlacedAt      time.Time   `json:"placed_at"`
}
