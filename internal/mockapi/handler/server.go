package handler

import (
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/store"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/token"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/upload"
	"github.com/rs/zerolog"
)

// Server 集中所有 handler，router 只依賴這個結構
type Server struct {
	Products *ProductHandler
	Auth     *AuthHandler
	Orders   *OrderHandler
	Uploads  *UploadHandler
	Tokens   token.Maker
}

func NewServer(s store.IShopStore, maker token.Maker, images upload.IImageStore, logger *zerolog.Logger) *Server {
	return &Server{
		Products: NewProductHandler(s, logger),
		Auth:     NewAuthHandler(s, maker, logger),
		Orders:   NewOrderHandler(s, logger),
		Uploads:  NewUploadHandler(images, logger),
		Tokens:   maker,
	}
}
