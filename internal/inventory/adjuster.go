package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/sirupsen/logrus"
)

var ErrUnknownAdjustment = errors.New("unknown adjustment kind")

// Adjuster applies post-order stock bookkeeping. Failures never block the
// order: they are logged and parked in the outbox for the poller to retry.
type Adjuster struct {
	repo   repository.InventoryRepository
	outbox repository.OutboxRepository
	log    logrus.FieldLogger
}

func NewAdjuster(repo repository.InventoryRepository, outbox repository.OutboxRepository, log logrus.FieldLogger) *Adjuster {
	return &Adjuster{repo: repo, outbox: outbox, log: log}
}

// Apply runs one adjustment against the inventory backend.
func (a *Adjuster) Apply(ctx context.Context, adj domain.InventoryAdjustment) error {
	switch adj.Kind {
	case domain.AdjustVariantStock:
		return a.repo.DecrementVariantStock(ctx, adj.Deltas)
	case domain.AdjustPurchaseCounts:
		return a.repo.IncrementPurchaseCounts(ctx, adj.Deltas)
	case domain.AdjustComboStock:
		for _, d := range adj.Deltas {
			if err := a.repo.DecrementComboStock(ctx, d.ID, d.Quantity); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAdjustment, adj.Kind)
	}
}

// ApplyAll attempts every adjustment independently and returns how many were
// deferred to the outbox.
func (a *Adjuster) ApplyAll(ctx context.Context, adjs []domain.InventoryAdjustment) int {
	deferred := 0
	for _, adj := range adjs {
		err := a.Apply(ctx, adj)
		if err == nil {
			continue
		}
		deferred++

		l := logger.FromContext(ctx, a.log).WithFields(logrus.Fields{
			"order_id": adj.OrderID,
			"kind":     adj.Kind,
			"code":     repository.CodeOf(err),
		})
		l.WithError(err).Warn("inventory adjustment failed, deferring to outbox")

		if errEnq := a.park(ctx, adj, err); errEnq != nil {
			l.WithError(errEnq).Error("inventory adjustment lost: outbox enqueue failed")
		}
	}
	return deferred
}

func (a *Adjuster) park(ctx context.Context, adj domain.InventoryAdjustment, cause error) error {
	payload, err := json.Marshal(adj)
	if err != nil {
		return fmt.Errorf("marshal adjustment: %w", err)
	}

	reason := cause.Error()
	event := &repository.OutboxEvent{
		AggregateId: adj.OrderID,
		EventType:   repository.EventInventoryAdjustment,
		Payload:     payload,
		LastError:   &reason,
	}
	return a.outbox.EnqueueEvent(ctx, event)
}
