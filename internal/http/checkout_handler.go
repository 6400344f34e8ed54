package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/sirupsen/logrus"
)

// OrderPlacer is the checkout pipeline. *checkout.Orchestrator satisfies it.
type OrderPlacer interface {
	Validate(form domain.CheckoutForm) checkout.ValidationErrors
	Totals(snapshot domain.CartSnapshot, method domain.DeliveryMethod) checkout.Totals
	PlaceOrder(ctx context.Context, cart checkout.Cart, form domain.CheckoutForm, ownerID string) (*checkout.Confirmation, error)
}

type CheckoutHandler struct {
	placer  OrderPlacer
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewCheckoutHandler(placer OrderPlacer, timeout time.Duration, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{placer: placer, timeout: timeout, log: log}
}

type ValidateResponseDTO struct {
	Valid  bool            `json:"valid"`
	Totals checkout.Totals `json:"totals"`
}

var orderErrorStatus = map[checkout.ErrorKind]int{
	checkout.KindNetwork:           http.StatusServiceUnavailable,
	checkout.KindDuplicate:         http.StatusConflict,
	checkout.KindInsufficientStock: http.StatusConflict,
	checkout.KindGeneric:           http.StatusInternalServerError,
}

func respondValidation(w http.ResponseWriter, errs checkout.ValidationErrors) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "please correct the highlighted fields",
		Code:    "validation_failed",
		Details: errs,
	})
}

func decodeForm(w http.ResponseWriter, r *http.Request) (domain.CheckoutForm, bool) {
	var form domain.CheckoutForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return form, false
	}
	return form, true
}

// Validate checks the form without placing anything and prices the cart for
// the chosen delivery method.
func (h *CheckoutHandler) Validate(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	if errs := h.placer.Validate(form); errs != nil {
		respondValidation(w, errs)
		return
	}

	snapshot := sessionFrom(r.Context()).Store().Snapshot()
	respondJSON(w, http.StatusOK, ValidateResponseDTO{
		Valid:  true,
		Totals: h.placer.Totals(snapshot, form.DeliveryMethod),
	})
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form, ok := decodeForm(w, r)
	if !ok {
		return
	}

	session := sessionFrom(r.Context())
	ownerID, _ := session.UserID()

	conf, err := h.placer.PlaceOrder(ctx, session.Store(), form, ownerID)
	if err != nil {
		h.respondPlaceError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, conf)
}

func (h *CheckoutHandler) respondPlaceError(ctx context.Context, w http.ResponseWriter, err error) {
	var verrs checkout.ValidationErrors
	var orderErr *checkout.OrderError
	switch {
	case errors.As(err, &verrs):
		respondValidation(w, verrs)
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "your cart is empty")
	case errors.As(err, &orderErr):
		status, ok := orderErrorStatus[orderErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		respondError(w, status, string(orderErr.Kind), orderErr.Message())
	default:
		logger.FromContext(ctx, h.log).WithError(err).Error("unexpected checkout failure")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
