package inventory

import (
	"context"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBackend_Postgres(t *testing.T) {
	pg := NewMemoryStore()

	for _, name := range []string{"", BackendPostgres} {
		got, err := SelectBackend(name, pg, Seed{})
		require.NoError(t, err)
		assert.Same(t, pg, got)
	}
}

func TestSelectBackend_MemorySeeded(t *testing.T) {
	got, err := SelectBackend(BackendMemory, nil, Seed{
		Variants: map[int64]int{1: 3},
		Combos:   map[int64]int{7: 1},
	})
	require.NoError(t, err)

	store, ok := got.(*MemoryStore)
	require.True(t, ok)

	ctx := context.Background()
	require.NoError(t, store.DecrementVariantStock(ctx, []domain.StockDelta{{ID: 1, Quantity: 2}}))
	v, ok := store.Variant(1)
	require.True(t, ok)
	assert.Equal(t, 1, v.Stock)

	err = store.DecrementComboStock(ctx, 7, 2)
	assert.Equal(t, repository.CodeInsufficientStock, repository.CodeOf(err))
}

func TestSelectBackend_Unknown(t *testing.T) {
	_, err := SelectBackend("redis", NewMemoryStore(), Seed{})
	assert.Error(t, err)
}
