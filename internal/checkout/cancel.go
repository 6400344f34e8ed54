package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Canceller lets a shopper cancel their own pending order.
type Canceller struct {
	orders repository.OrderRepository
	log    logrus.FieldLogger
}

func NewCanceller(orders repository.OrderRepository, log logrus.FieldLogger) *Canceller {
	return &Canceller{orders: orders, log: log}
}

// Cancel flips the order to cancelled with one guarded update matching id,
// owner and pending status. When the guard matches nothing and the order is
// already cancelled the call is a no-op. Any other mismatch, including a
// foreign or unknown order, is ErrGuardMismatch and carries no detail.
func (c *Canceller) Cancel(ctx context.Context, orderID uuid.UUID, requesterID string) (*domain.Order, error) {
	if orderID == uuid.Nil {
		return nil, ErrInvalidOrder
	}
	if requesterID == "" {
		return nil, ErrGuardMismatch
	}
	log := logger.FromContext(ctx, c.log).WithFields(logrus.Fields{
		"order_id": orderID.String(),
		"user_id":  requesterID,
	})

	cancelled, err := c.orders.CancelPending(ctx, orderID, requesterID)
	if err != nil {
		log.WithError(err).Error("cancel order failed")
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	order, err := c.orders.GetOrderForOwner(ctx, orderID, requesterID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		log.Info("cancel rejected: no such order for requester")
		return nil, ErrGuardMismatch
	}
	if err != nil {
		if cancelled {
			// the update committed, report it even without a fresh read
			return &domain.Order{ID: orderID, OwnerID: &requesterID, Status: domain.OrderStatusCancelled}, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if cancelled {
		log.Info("order cancelled")
		return order, nil
	}

	log = log.WithField("status", order.Status.String())
	switch {
	case order.Status == domain.OrderStatusCancelled:
		return order, nil
	case domain.CanTransitionTo(order.Status, domain.OrderStatusCancelled):
		// still cancellable, so the guarded update lost to a concurrent writer
		log.Warn("cancel rejected: order changed during cancel")
	case order.Status.IsTerminal():
		log.Info("cancel rejected: order already closed")
	default:
		log.Info("cancel rejected: order in progress")
	}
	return nil, ErrGuardMismatch
}

// History lists the requester's orders, newest first.
func (c *Canceller) History(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	orders, err := c.orders.ListOrdersByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
