package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/empanada/internal/mockapi/handler"
	m "github.com/RoyceAzure/lab/empanada/internal/mockapi/middleware"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/ratelimit"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// SetupRouter loginLimiter 為 nil 時 /login 不限流
func SetupRouter(server *handler.Server, loginLimiter ratelimit.ILimiter, logger *zerolog.Logger) *chi.Mux {
	if server == nil {
		panic("server cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.Authenticate(server.Tokens))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/register", server.Auth.Register)
	if loginLimiter != nil {
		r.With(ratelimit.NewRateLimitMiddleware(loginLimiter, ratelimit.ClientIP, logger)).Post("/login", server.Auth.Login)
	} else {
		r.Post("/login", server.Auth.Login)
	}

	r.Route("/products", func(r chi.Router) {
		r.Get("/", server.Products.List)
		r.Get("/{id}", server.Products.Get)
		r.Group(func(r chi.Router) {
			r.Use(m.RequireAdmin)
			r.Post("/", server.Products.Create)
			r.Put("/{id}", server.Products.Update)
			r.Delete("/{id}", server.Products.Delete)
		})
	})
	r.With(m.RequireAdmin).Post("/admin/stock/{id}", server.Products.AddStock)

	r.Route("/orders", func(r chi.Router) {
		r.With(m.RequireAuth).Post("/", server.Orders.Create)
		r.With(m.RequireAuth).Get("/user/{email}", server.Orders.ListByUser)
		r.With(m.RequireAdmin).Get("/", server.Orders.List)
		r.With(m.RequireAdmin).Patch("/{id}/status", server.Orders.UpdateStatus)
	})

	r.With(m.RequireAdmin).Post("/upload", server.Uploads.Upload)
	r.Get("/static/images/{name}", server.Uploads.Serve)

	return r
}
