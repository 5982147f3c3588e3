package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
)

// CreateOrder 伺服器以 400/409 拒絕時視為庫存衝突
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderReceipt, error) {
	var receipt model.OrderReceipt
	if err := c.doJSON(ctx, "apiclient.CreateOrder", http.MethodPost, "/orders", req, &receipt); err != nil {
		return nil, asStockConflict(err)
	}
	return &receipt, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.doJSON(ctx, "apiclient.ListOrders", http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (c *Client) ListUserOrders(ctx context.Context, email string) ([]model.Order, error) {
	var orders []model.Order
	path := fmt.Sprintf("/orders/user/%s", url.PathEscape(email))
	if err := c.doJSON(ctx, "apiclient.ListUserOrders", http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) error {
	path := fmt.Sprintf("/orders/%s/status", url.PathEscape(id))
	return c.doJSON(ctx, "apiclient.UpdateOrderStatus", http.MethodPatch, path, model.OrderStatusRequest{Status: status}, nil)
}
