package apiclient

import (
	"context"
	"net/http"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
)

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) error {
	return c.doJSON(ctx, "apiclient.Register", http.MethodPost, "/register", req, nil)
}

// Login identifier 可為 email 或名稱
func (c *Client) Login(ctx context.Context, identifier, password string) (*model.LoginResponse, error) {
	var res model.LoginResponse
	err := c.doJSON(ctx, "apiclient.Login", http.MethodPost, "/login", model.LoginRequest{
		Identifier: identifier,
		Password:   password,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
