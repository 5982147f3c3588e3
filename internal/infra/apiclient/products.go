package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
)

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.doJSON(ctx, "apiclient.ListProducts", http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	var p model.Product
	if err := c.doJSON(ctx, "apiclient.GetProduct", http.MethodGet, fmt.Sprintf("/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, p model.Product) error {
	return c.doJSON(ctx, "apiclient.CreateProduct", http.MethodPost, "/products", p, nil)
}

func (c *Client) UpdateProduct(ctx context.Context, id int, p model.Product) error {
	return c.doJSON(ctx, "apiclient.UpdateProduct", http.MethodPut, fmt.Sprintf("/products/%d", id), p, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.doJSON(ctx, "apiclient.DeleteProduct", http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil)
}

func (c *Client) AddStock(ctx context.Context, id int, quantity int) error {
	return c.doJSON(ctx, "apiclient.AddStock", http.MethodPost, fmt.Sprintf("/admin/stock/%d", id), model.StockRequest{Quantity: quantity}, nil)
}
