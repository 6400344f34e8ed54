package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrLineNotFound  = errors.New("cart line not found")
	ErrOrderNotFound = errors.New("order not found")
)

// ErrorCode classifies backend failures so callers never inspect driver text.
type ErrorCode string

const (
	CodeUnknown           ErrorCode = "unknown"
	CodeUnavailable       ErrorCode = "unavailable"
	CodeDuplicate         ErrorCode = "duplicate"
	CodeInsufficientStock ErrorCode = "insufficient_stock"
	CodeNotFound          ErrorCode = "not_found"
)

// Error is returned by every repository method that talks to a backend.
type Error struct {
	Op   string
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code carried by err, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeUnavailable
	}
	return CodeUnknown
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// CartRepository is the persisted cart of an authenticated identity.
type CartRepository interface {
	ListLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	// InsertLine stores a new line and returns its persisted id.
	InsertLine(ctx context.Context, userID string, line domain.CartLine) (string, error)
	UpdateLineQuantity(ctx context.Context, userID, lineID string, quantity int) error
	DeleteLine(ctx context.Context, userID, lineID string) error
	DeleteAllLines(ctx context.Context, userID string) error

	ListSaved(ctx context.Context, userID string) ([]domain.SavedItem, error)
	// InsertSaved is insert-or-ignore on (userID, productID).
	InsertSaved(ctx context.Context, userID string, productID int64) error
	DeleteSaved(ctx context.Context, userID string, productID int64) error
}

type OrderRepository interface {
	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertOrderLines(ctx context.Context, lines []domain.OrderLine) error
	// CancelPending flips a pending order owned by ownerID to cancelled in one
	// guarded update and reports whether a row matched.
	CancelPending(ctx context.Context, orderID uuid.UUID, ownerID string) (bool, error)
	GetOrderForOwner(ctx context.Context, orderID uuid.UUID, ownerID string) (*domain.Order, error)
	ListOrdersByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error)
}

type InventoryRepository interface {
	DecrementVariantStock(ctx context.Context, deltas []domain.StockDelta) error
	IncrementPurchaseCounts(ctx context.Context, deltas []domain.StockDelta) error
	DecrementComboStock(ctx context.Context, comboID int64, quantity int) error
}

type OutboxRepository interface {
	EnqueueEvent(ctx context.Context, event *OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit, maxAttempts int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	MarkEventAsFailed(ctx context.Context, id int64, reason string) error
}
