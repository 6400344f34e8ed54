package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	timeout time.Duration
}

func NewCartHandler(timeout time.Duration) *CartHandler {
	return &CartHandler{timeout: timeout}
}

type AddItemRequestDTO struct {
	Kind      domain.RefKind `json:"kind"`
	ID        int64          `json:"id"`
	Quantity  int            `json:"quantity"`
	UnitPrice int64          `json:"unit_price"`
	Name      string         `json:"name"`
	Image     string         `json:"image"`
	Size      string         `json:"size"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Mode string `json:"mode"`
	domain.CartSnapshot
}

type ToggleSavedResponseDTO struct {
	ProductID int64 `json:"product_id"`
	Saved     bool  `json:"saved"`
}

func cartResponse(s *cart.Store) CartResponseDTO {
	return CartResponseDTO{Mode: s.Mode().String(), CartSnapshot: s.Snapshot()}
}

// respondStoreError maps queue failures. Persistence failures never reach
// here: the store logs them and keeps its optimistic state.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidRef):
		respondError(w, http.StatusBadRequest, "invalid_ref", "kind must be variant or combo with a positive id")
	case errors.Is(err, cart.ErrInvalidPrice):
		respondError(w, http.StatusBadRequest, "invalid_price", "unit_price must not be negative")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "cart is busy, try again")
	case errors.Is(err, cart.ErrStoreClosed):
		respondError(w, http.StatusGone, "session_closed", "cart session expired")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(sessionFrom(r.Context()).Store()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	store := sessionFrom(r.Context()).Store()
	item := cart.Item{
		Ref:       domain.LineRef{Kind: req.Kind, ID: req.ID},
		UnitPrice: req.UnitPrice,
		Meta:      domain.LineMeta{Name: req.Name, Image: req.Image, Size: req.Size},
	}
	if err := store.AddItem(ctx, item, req.Quantity); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(store))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	store := sessionFrom(r.Context()).Store()
	if err := store.SetQuantity(ctx, chi.URLParam(r, "line_id"), req.Quantity); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store := sessionFrom(r.Context()).Store()
	if err := store.RemoveItem(ctx, chi.URLParam(r, "line_id")); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store := sessionFrom(r.Context()).Store()
	if err := store.Clear(ctx); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) ToggleSaved(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	saved, err := sessionFrom(r.Context()).Store().ToggleSaved(ctx, productID)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ToggleSavedResponseDTO{ProductID: productID, Saved: saved})
}
