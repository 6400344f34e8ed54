package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type OrderCanceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID, requesterID string) (*domain.Order, error)
	History(ctx context.Context, ownerID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderCanceller
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewOrdersHandler(orders OrderCanceller, timeout time.Duration, log logrus.FieldLogger) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout, log: log}
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := sessionFrom(r.Context()).UserID()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to see your orders")
		return
	}

	orders, err := h.orders.History(ctx, userID)
	if err != nil {
		logger.FromContext(ctx, h.log).WithError(err).Error("failed to list orders")
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "could not load orders")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := sessionFrom(r.Context()).UserID()
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to cancel an order")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.orders.Cancel(ctx, orderID, userID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, order)
	case errors.Is(err, checkout.ErrGuardMismatch):
		respondError(w, http.StatusConflict, "not_cancellable", "this order can no longer be cancelled")
	case errors.Is(err, checkout.ErrInvalidOrder):
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
	default:
		logger.FromContext(ctx, h.log).WithError(err).WithField("order_id", orderID).Error("cancel failed")
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "could not cancel the order, try again")
	}
}
