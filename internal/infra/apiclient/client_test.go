package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRejectsInvalidURL(t *testing.T) {
	_, err := NewClient("not a url")
	require.Error(t, err)

	_, err = NewClient("")
	require.Error(t, err)
}

func TestListProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/products", r.URL.Path)
		writeJSON(w, http.StatusOK, []model.Product{
			{ID: 1, Name: "Pino", Category: "horno", Price: 2500, Stock: 20, Image: "pino.jpg"},
			{ID: 3, Name: "Camarón Queso", Category: "frita", Price: 2800, Stock: 0},
		})
	})

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Pino", products[0].Name)
	assert.Equal(t, int64(2500), products[0].Price)
	assert.False(t, products[1].InStock())
}

func TestListProductsNullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("null"))
	})

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, products)
	require.Empty(t, products)
}

func TestBearerTokenInjected(t *testing.T) {
	token := ""
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			require.Empty(t, r.Header.Get("Authorization"))
		} else {
			require.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusOK, []model.Order{})
	}, WithTokenSource(TokenSourceFunc(func() string { return token })))

	_, err := c.ListOrders(context.Background())
	require.NoError(t, err)

	token = "abc"
	_, err = c.ListOrders(context.Background())
	require.NoError(t, err)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		kind     errs.Kind
		sentinel error
		reason   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Credenciales inválidas"}`, errs.KindUnauthorized, errs.ErrUnauthorized, "Credenciales inválidas"},
		{"forbidden", http.StatusForbidden, `{"detail":"Solo administradores"}`, errs.KindForbidden, errs.ErrForbidden, "Solo administradores"},
		{"not found", http.StatusNotFound, `{"detail":"No encontrado"}`, errs.KindNotFound, errs.ErrNotFound, "No encontrado"},
		{"bad request", http.StatusBadRequest, `{"detail":"Email ya registrado"}`, errs.KindBadRequest, errs.ErrBadRequest, "Email ya registrado"},
		{"server", http.StatusInternalServerError, `oops`, errs.KindServer, errs.ErrServer, ""},
		{"error field", http.StatusUnprocessableEntity, `{"error":"bad payload"}`, errs.KindBadRequest, errs.ErrBadRequest, "bad payload"},
		{"structured detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, errs.KindBadRequest, errs.ErrBadRequest, ""},
		{"rate limited", http.StatusTooManyRequests, `{"detail":"Too Many Requests"}`, errs.KindRateLimited, errs.ErrRateLimited, constants.MsgRateLimited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.GetProduct(context.Background(), 1)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.sentinel))
			require.Equal(t, tc.kind, errs.KindOf(err))
			require.Equal(t, tc.reason, errs.ReasonOf(err, ""))

			var se *errs.ShopError
			require.True(t, errors.As(err, &se))
			require.Equal(t, tc.status, se.Status)
		})
	}
}

func TestRateLimitedRetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Login(context.Background(), "ana@x.cl", "secret123")
	require.ErrorIs(t, err, errs.ErrRateLimited)

	var se *errs.ShopError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 60*time.Second, se.RetryAfter)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.ListProducts(context.Background())
	require.ErrorIs(t, err, errs.ErrNetwork)
	require.Equal(t, constants.MsgConnectionError, errs.ReasonOf(err, ""))
}

func TestTimeoutIsNetworkFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, []model.Product{})
	}, WithTimeout(20*time.Millisecond))

	_, err := c.ListProducts(context.Background())
	require.ErrorIs(t, err, errs.ErrNetwork)
}

func TestMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":`))
	})

	_, err := c.GetProduct(context.Background(), 1)
	require.ErrorIs(t, err, errs.ErrDecode)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ana@x.cl", req.Identifier)
		require.Equal(t, "secret123", req.Password)
		writeJSON(w, http.StatusOK, model.LoginResponse{
			AccessToken: "tok",
			TokenType:   "bearer",
			User:        model.User{Name: "Ana Pérez", Email: "ana@x.cl", Role: "cliente"},
		})
	})

	res, err := c.Login(context.Background(), "ana@x.cl", "secret123")
	require.NoError(t, err)
	require.Equal(t, "tok", res.AccessToken)
	require.Equal(t, "Ana", res.User.FirstName())
}

func TestCreateOrderStockConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Sin stock suficiente para Pino"})
	})

	_, err := c.CreateOrder(context.Background(), model.OrderRequest{
		CustomerEmail: "ana@x.cl",
		Items:         []model.OrderItem{{ProductID: 1, Name: "Pino", Price: 2500, Quantity: 3}},
		Total:         7500,
	})
	require.ErrorIs(t, err, errs.ErrStockConflict)
	require.Equal(t, "Sin stock suficiente para Pino", errs.ReasonOf(err, ""))
}

func TestCreateOrderServerErrorIsNotConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.CreateOrder(context.Background(), model.OrderRequest{})
	require.ErrorIs(t, err, errs.ErrServer)
	require.NotErrorIs(t, err, errs.ErrStockConflict)
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req model.OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, int64(5000), req.Total)
		require.Len(t, req.Items, 1)
		require.Equal(t, 1, req.Items[0].ProductID)
		writeJSON(w, http.StatusOK, model.OrderReceipt{ID: "abc-123", Status: "confirmado"})
	})

	receipt, err := c.CreateOrder(context.Background(), model.OrderRequest{
		CustomerEmail: "ana@x.cl",
		Items:         []model.OrderItem{{ProductID: 1, Name: "Pino", Price: 2500, Quantity: 2}},
		Total:         5000,
	})
	require.NoError(t, err)
	require.Equal(t, "abc-123", receipt.ID)
	require.Equal(t, "confirmado", receipt.Status)
}

func TestListUserOrdersEscapesEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/user/ana+1@x.cl", r.URL.Path)
		writeJSON(w, http.StatusOK, []model.Order{{ID: "o1", Status: "recibido"}})
	})

	orders, err := c.ListUserOrders(context.Background(), "ana+1@x.cl")
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestUpdateOrderStatusAndAddStock(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/orders/o1/status":
			require.JSONEq(t, `{"status":"listo"}`, string(raw))
		case "/admin/stock/2":
			require.JSONEq(t, `{"quantity":5}`, string(raw))
		}
		writeJSON(w, http.StatusOK, model.MessageResponse{Message: "ok"})
	})

	require.NoError(t, c.UpdateOrderStatus(context.Background(), "o1", "listo"))
	require.NoError(t, c.AddStock(context.Background(), 2, 5))
	require.Equal(t, []string{"PATCH /orders/o1/status", "POST /admin/stock/2"}, calls)
}

func TestUploadImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		raw, _ := io.ReadAll(f)
		require.Equal(t, "pino.png", hdr.Filename)
		require.Equal(t, "PNGDATA", string(raw))
		writeJSON(w, http.StatusOK, model.UploadResponse{URL: "/static/images/pino.png"})
	})

	url, err := c.UploadImage(context.Background(), "pino.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	require.Equal(t, "/static/images/pino.png", url)
}

func TestImageURL(t *testing.T) {
	c, err := NewClient("http://localhost:8000/")
	require.NoError(t, err)

	require.Equal(t, "https://cdn.x/p.jpg", c.ImageURL("https://cdn.x/p.jpg"))
	require.Equal(t, "http://localhost:8000/static/images/p.jpg", c.ImageURL("/static/images/p.jpg"))
	require.Equal(t, "http://localhost:8000/static/images/p.jpg", c.ImageURL("p.jpg"))
}

func TestCreateOrderOtherBadRequestIsNotConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": constants.MsgCartEmpty})
	})

	_, err := c.CreateOrder(context.Background(), model.OrderRequest{})
	require.ErrorIs(t, err, errs.ErrBadRequest)
	require.NotErrorIs(t, err, errs.ErrStockConflict)
	require.Equal(t, constants.MsgCartEmpty, errs.ReasonOf(err, ""))
}

func TestCreateOrderConflictWithoutDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := c.CreateOrder(context.Background(), model.OrderRequest{})
	require.ErrorIs(t, err, errs.ErrStockConflict)
	// 沒有訊息時交給呼叫端決定
	require.Equal(t, "fallback", errs.ReasonOf(err, "fallback"))
}
