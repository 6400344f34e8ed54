package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/repository"
)

var (
	ErrEmptyCart     = errors.New("cart is empty, nothing to checkout")
	ErrGuardMismatch = errors.New("order cannot be cancelled")
	ErrInvalidOrder  = errors.New("invalid order id")
)

// ErrorKind is the user-facing class of a failed order placement.
type ErrorKind string

const (
	KindNetwork           ErrorKind = "network"
	KindDuplicate         ErrorKind = "duplicate_order"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindGeneric           ErrorKind = "order_failed"
)

var userMessages = map[ErrorKind]string{
	KindNetwork:           "Could not reach the store. Check your connection and try again.",
	KindDuplicate:         "This order was already placed.",
	KindInsufficientStock: "Some items are no longer available in the requested quantity.",
	KindGeneric:           "We could not place your order. Please try again.",
}

// OrderError is returned when a hard step of PlaceOrder fails. Err keeps the
// backend cause for logs; Message is the only text meant for the shopper.
type OrderError struct {
	Kind    ErrorKind
	OrderID string
	Step    string
	Err     error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("place order %s: %s: %s: %v", e.OrderID, e.Step, e.Kind, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

func (e *OrderError) Message() string {
	return userMessages[e.Kind]
}

func classify(err error) ErrorKind {
	switch repository.CodeOf(err) {
	case repository.CodeUnavailable:
		return KindNetwork
	case repository.CodeDuplicate:
		return KindDuplicate
	case repository.CodeInsufficientStock:
		return KindInsufficientStock
	default:
		return KindGeneric
	}
}

func orderError(orderID, step string, err error) *OrderError {
	return &OrderError{Kind: classify(err), OrderID: orderID, Step: step, Err: err}
}
