package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidRef   = errors.New("invalid line reference")
	ErrInvalidPrice = errors.New("unit price must not be negative")
)

// Store owns one shopper's cart lines and saved items. Mutations run through
// a FIFO queue so each one sees the result of the previous one and at most
// one persistence call is in flight.
//
// Persistence failures are logged and never returned: the in-memory state
// keeps the optimistic result even when the backend write failed.
type Store struct {
	queue *mutationQueue
	log   logrus.FieldLogger

	mu       sync.RWMutex
	strategy Strategy
	lines    []domain.CartLine
	saved    []domain.SavedItem
}

func NewStore(strategy Strategy, log logrus.FieldLogger) *Store {
	return &Store{
		queue:    newMutationQueue(),
		log:      log,
		strategy: strategy,
	}
}

// Close stops the mutation queue. Later mutations return ErrStoreClosed.
func (s *Store) Close() {
	s.queue.close()
}

func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy.Mode()
}

// Snapshot returns a copy of the current cart with its subtotal.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := cloneLines(s.lines)
	if lines == nil {
		lines = []domain.CartLine{}
	}
	saved := cloneSaved(s.saved)
	if saved == nil {
		saved = []domain.SavedItem{}
	}
	return domain.CartSnapshot{
		Lines:    lines,
		Saved:    saved,
		Subtotal: domain.Subtotal(lines),
	}
}

func (s *Store) current() (Strategy, []domain.CartLine, []domain.SavedItem) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy, cloneLines(s.lines), cloneSaved(s.saved)
}

func (s *Store) setLines(lines []domain.CartLine) {
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

func (s *Store) setSaved(saved []domain.SavedItem) {
	s.mu.Lock()
	s.saved = saved
	s.mu.Unlock()
}

func (s *Store) logFailure(ctx context.Context, strategy Strategy, op string, err error) {
	logger.FromContext(ctx, s.log).
		WithError(err).
		WithFields(logrus.Fields{"op": op, "mode": strategy.Mode().String()}).
		Error("cart persistence failed")
}

// AddItem adds quantity of item, or increments an existing line for the same
// ref by exactly one.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) error {
	if !item.Ref.Valid() {
		return ErrInvalidRef
	}
	if item.UnitPrice < 0 {
		return ErrInvalidPrice
	}
	if quantity < 1 {
		quantity = 1
	}

	return s.queue.do(ctx, func(ctx context.Context) error {
		strategy, lines, _ := s.current()
		next, err := strategy.Add(ctx, lines, item, quantity)
		if err != nil {
			s.logFailure(ctx, strategy, "add", err)
			return nil
		}
		s.setLines(next)
		return nil
	})
}

// RemoveItem is idempotent: an unknown id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		s.remove(ctx, lineID)
		return nil
	})
}

func (s *Store) remove(ctx context.Context, lineID string) {
	strategy, lines, _ := s.current()
	i := findByID(lines, lineID)
	if i < 0 {
		return
	}
	s.setLines(append(lines[:i], lines[i+1:]...))

	if err := strategy.Remove(ctx, lineID); err != nil {
		s.logFailure(ctx, strategy, "remove", err)
	}
}

// SetQuantity removes the line when quantity is zero or less.
func (s *Store) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		if quantity <= 0 {
			s.remove(ctx, lineID)
			return nil
		}

		strategy, lines, _ := s.current()
		i := findByID(lines, lineID)
		if i < 0 {
			return nil
		}
		lines[i].Quantity = quantity
		s.setLines(lines)

		if err := strategy.SetQuantity(ctx, lineID, quantity); err != nil {
			s.logFailure(ctx, strategy, "set_quantity", err)
		}
		return nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		strategy, _, _ := s.current()
		s.setLines(nil)

		if err := strategy.Clear(ctx); err != nil {
			s.logFailure(ctx, strategy, "clear", err)
		}
		return nil
	})
}

// RemoveOrdered takes the ordered lines out of the cart after checkout.
// Anything added since the order snapshot stays: new lines are kept and a
// line whose quantity grew keeps the difference. When nothing changed the
// cart is cleared in one call.
func (s *Store) RemoveOrdered(ctx context.Context, ordered []domain.CartLine) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		strategy, lines, _ := s.current()

		orderedQty := make(map[string]int, len(ordered))
		for _, l := range ordered {
			orderedQty[l.ID] = l.Quantity
		}

		var (
			next    = make([]domain.CartLine, 0, len(lines))
			removed []string
			reduced []domain.CartLine
		)
		for _, l := range lines {
			q, ok := orderedQty[l.ID]
			switch {
			case !ok:
				next = append(next, l)
			case l.Quantity > q:
				l.Quantity -= q
				next = append(next, l)
				reduced = append(reduced, l)
			default:
				removed = append(removed, l.ID)
			}
		}

		if len(next) == 0 {
			s.setLines(nil)
			if err := strategy.Clear(ctx); err != nil {
				s.logFailure(ctx, strategy, "clear", err)
			}
			return nil
		}

		s.setLines(next)
		for _, id := range removed {
			if err := strategy.Remove(ctx, id); err != nil {
				s.logFailure(ctx, strategy, "remove", err)
			}
		}
		for _, l := range reduced {
			if err := strategy.SetQuantity(ctx, l.ID, l.Quantity); err != nil {
				s.logFailure(ctx, strategy, "set_quantity", err)
			}
		}
		return nil
	})
}

// ToggleSaved saves productID if absent and unsaves it if present. It reports
// whether the product is saved afterwards.
func (s *Store) ToggleSaved(ctx context.Context, productID int64) (bool, error) {
	var saved bool
	err := s.queue.do(ctx, func(ctx context.Context) error {
		strategy, _, items := s.current()

		for i, it := range items {
			if it.ProductID == productID {
				s.setSaved(append(items[:i], items[i+1:]...))
				if err := strategy.Unsave(ctx, productID); err != nil {
					s.logFailure(ctx, strategy, "unsave", err)
				}
				return nil
			}
		}

		saved = true
		s.setSaved(append(items, domain.SavedItem{ProductID: productID, SavedAt: time.Now()}))
		if err := strategy.Save(ctx, productID); err != nil {
			s.logFailure(ctx, strategy, "save", err)
		}
		return nil
	})
	return saved, err
}

// Reload replaces the in-memory state with what the strategy has persisted.
// A failed load keeps the current state and is returned.
func (s *Store) Reload(ctx context.Context) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		strategy, _, _ := s.current()
		return s.load(ctx, strategy)
	})
}

func (s *Store) load(ctx context.Context, strategy Strategy) error {
	lines, saved, err := strategy.Load(ctx)
	if err != nil {
		s.logFailure(ctx, strategy, "load", err)
		return err
	}
	s.mu.Lock()
	s.lines, s.saved = lines, saved
	s.mu.Unlock()
	return nil
}

// PrepareFunc sees the outgoing lines and saved items before a Rebind resets
// them. It runs inside the mutation queue.
type PrepareFunc func(ctx context.Context, lines []domain.CartLine, saved []domain.SavedItem)

// Rebind switches the store to next as one queued step: prepare sees the old
// state, the collections are reset to empty, the strategy is swapped and the
// new strategy's state is loaded. A load error leaves the store empty on the
// new strategy.
func (s *Store) Rebind(ctx context.Context, next Strategy, prepare PrepareFunc) error {
	return s.queue.do(ctx, func(ctx context.Context) error {
		_, lines, saved := s.current()
		if prepare != nil {
			prepare(ctx, lines, saved)
		}

		s.mu.Lock()
		s.strategy = next
		s.lines, s.saved = nil, nil
		s.mu.Unlock()

		return s.load(ctx, next)
	})
}
