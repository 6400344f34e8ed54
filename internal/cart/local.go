package cart

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

const localIDPrefix = "local-"

// LocalStrategy keeps the guest cart in memory only. Every write is a no-op
// because the Store already holds the state.
type LocalStrategy struct{}

func NewLocalStrategy() *LocalStrategy {
	return &LocalStrategy{}
}

func (LocalStrategy) Mode() Mode { return ModeLocal }

func (LocalStrategy) Load(context.Context) ([]domain.CartLine, []domain.SavedItem, error) {
	return nil, nil, nil
}

func (LocalStrategy) Add(_ context.Context, lines []domain.CartLine, item Item, quantity int) ([]domain.CartLine, error) {
	out := cloneLines(lines)
	if i := findByRef(out, item.Ref); i >= 0 {
		out[i].Quantity++
		return out, nil
	}

	return append(out, domain.CartLine{
		ID:        localIDPrefix + uuid.NewString(),
		Ref:       item.Ref,
		Quantity:  quantity,
		UnitPrice: item.UnitPrice,
		Meta:      item.Meta,
		AddedAt:   time.Now(),
	}), nil
}

func (LocalStrategy) Remove(context.Context, string) error { return nil }

func (LocalStrategy) SetQuantity(context.Context, string, int) error { return nil }

func (LocalStrategy) Clear(context.Context) error { return nil }

func (LocalStrategy) Save(context.Context, int64) error { return nil }

func (LocalStrategy) Unsave(context.Context, int64) error { return nil }
