package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/middleware"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/response"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// 後台列表最多顯示的筆數
const adminOrderLimit = 100

type OrderHandler struct {
	store  store.IShopStore
	logger *zerolog.Logger
	now    func() time.Time
}

func NewOrderHandler(s store.IShopStore, logger *zerolog.Logger) *OrderHandler {
	if s == nil {
		panic("shop store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &OrderHandler{store: s, logger: logger, now: time.Now}
}

// @Summary place order, stock is checked and deducted atomically
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var req model.OrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		response.Error(w, http.StatusBadRequest, constants.MsgCartEmpty)
		return
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			response.Error(w, http.StatusBadRequest, constants.MsgInvalidQuantity)
			return
		}
	}

	// 以 token 身分為準，忽略 body 內的 email
	order := store.OrderRecord{
		Order: model.Order{
			ID:            uuid.New().String(),
			CustomerEmail: user.Email,
			Items:         req.Items,
			Total:         req.Total,
			Status:        string(constants.OrderStatusReceived),
		},
		CreatedAt: h.now(),
	}

	if err := h.store.PlaceOrder(r.Context(), order); err != nil {
		var stockErr *store.InsufficientStockError
		if errors.As(err, &stockErr) {
			response.Error(w, http.StatusBadRequest, fmt.Sprintf("%s para %s", constants.MsgStockConflictPrefix, stockErr.ProductName))
			return
		}
		storeError(w, h.logger, err, "Producto no encontrado")
		return
	}

	h.logger.Info().
		Str("order_id", order.ID).
		Str("email", order.CustomerEmail).
		Int64("total", order.Total).
		Msg("order placed")

	response.JSON(w, http.StatusOK, model.OrderReceipt{
		ID:     order.ID,
		Status: string(constants.OrderStatusConfirmed),
	})
}

// @Summary list latest orders, admin only
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrders(r.Context(), adminOrderLimit)
	if err != nil {
		storeError(w, h.logger, err, "")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	response.JSON(w, http.StatusOK, orders)
}

// @Summary list orders of one customer, self or admin
// @Router /orders/user/{email} [get]
func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	email := chi.URLParam(r, "email")
	if !user.IsAdmin() && !strings.EqualFold(user.Email, email) {
		response.Error(w, http.StatusForbidden, "No autorizado")
		return
	}
	orders, err := h.store.ListOrdersByEmail(r.Context(), email)
	if err != nil {
		storeError(w, h.logger, err, "")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	response.JSON(w, http.StatusOK, orders)
}

// @Summary change order status, admin only
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req model.OrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !constants.IsValidOrderStatus(req.Status) {
		response.Error(w, http.StatusBadRequest, constants.MsgInvalidStatus)
		return
	}
	if err := h.store.UpdateOrderStatus(r.Context(), id, req.Status); err != nil {
		storeError(w, h.logger, err, "Pedido no encontrado")
		return
	}
	response.JSON(w, http.StatusOK, model.MessageResponse{Message: constants.MsgStatusUpdated})
}
