package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIdMiddleware(t *testing.T) {
	var seen string
	h := RequestIdMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "fijo")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "fijo", seen)
}

func TestLoggerMiddlewareLogsUserAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	maker := token.NewMemoryMaker(time.Hour)
	tok, err := maker.CreateToken(model.User{Name: "Ana", Email: "ana@mail.com", Role: "cliente"})
	require.NoError(t, err)

	h := RequestIdMiddleware(LoggerMiddleware(&logger)(Authenticate(maker)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ana@mail.com", entry["user"])
	assert.Equal(t, "POST", entry["method"])
	assert.EqualValues(t, http.StatusCreated, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestLoggerMiddlewareRecoversPanic(t *testing.T) {
	logger := zerolog.Nop()
	h := LoggerMiddleware(&logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
}

func TestAuthGuards(t *testing.T) {
	maker := token.NewMemoryMaker(time.Hour)
	customer, _ := maker.CreateToken(model.User{Email: "ana@mail.com", Role: string(constants.RoleCustomer)})
	admin, _ := maker.CreateToken(model.User{Email: "admin@mail.com", Role: string(constants.RoleAdmin)})
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	testCases := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		header string
		status int
	}{
		{"auth without token", RequireAuth, "", http.StatusUnauthorized},
		{"auth with bad token", RequireAuth, "Bearer nope", http.StatusUnauthorized},
		{"auth with wrong scheme", RequireAuth, "Basic " + customer, http.StatusUnauthorized},
		{"auth with customer", RequireAuth, "Bearer " + customer, http.StatusOK},
		{"admin without token", RequireAdmin, "", http.StatusUnauthorized},
		{"admin with customer", RequireAdmin, "Bearer " + customer, http.StatusForbidden},
		{"admin with admin", RequireAdmin, "bearer " + admin, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := Authenticate(maker)(tc.guard(ok))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
