package handler

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/response"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/store"
	"github.com/rs/zerolog"
)

type ProductHandler struct {
	store  store.IShopStore
	logger *zerolog.Logger
}

func NewProductHandler(s store.IShopStore, logger *zerolog.Logger) *ProductHandler {
	if s == nil {
		panic("shop store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ProductHandler{store: s, logger: logger}
}

// @Summary list products
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		storeError(w, h.logger, err, "")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	response.JSON(w, http.StatusOK, products)
}

// @Router /products/{id} [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		storeError(w, h.logger, err, "Producto no encontrado")
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func validProduct(p model.Product) string {
	switch {
	case p.ID <= 0:
		return "ID inválido"
	case strings.TrimSpace(p.Name) == "":
		return "Nombre requerido"
	case p.Price < 0 || p.Stock < 0:
		return "Precio y stock deben ser positivos"
	}
	return ""
}

// @Summary create product, admin only
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if msg := validProduct(p); msg != "" {
		response.Error(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.CreateProduct(r.Context(), p); err != nil {
		storeError(w, h.logger, err, "")
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// @Summary update product, admin only
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p model.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = id
	if msg := validProduct(p); msg != "" {
		response.Error(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.store.UpdateProduct(r.Context(), id, p); err != nil {
		storeError(w, h.logger, err, "Producto no encontrado")
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		storeError(w, h.logger, err, "Producto no encontrado")
		return
	}
	response.JSON(w, http.StatusOK, model.MessageResponse{Message: constants.MsgDeleted})
}

// @Summary add stock, admin only
// @Router /admin/stock/{id} [post]
func (h *ProductHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.StockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		response.Error(w, http.StatusBadRequest, constants.MsgInvalidQuantity)
		return
	}
	p, err := h.store.AddStock(r.Context(), id, req.Quantity)
	if err != nil {
		storeError(w, h.logger, err, "Producto no encontrado")
		return
	}
	response.JSON(w, http.StatusOK, p)
}
