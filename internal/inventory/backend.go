package inventory

import (
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/repository"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Seed is the starting stock for the memory backend, keyed by variant and
// combo id.
type Seed struct {
	Variants map[int64]int
	Combos   map[int64]int
}

// SelectBackend returns the stock store named by backend. The memory backend
// keeps stock for the life of the process and starts from seed.
func SelectBackend(backend string, pg repository.InventoryRepository, seed Seed) (repository.InventoryRepository, error) {
	switch backend {
	case "", BackendPostgres:
		return pg, nil
	case BackendMemory:
		store := NewMemoryStore()
		for id, stock := range seed.Variants {
			store.SetVariantStock(id, stock)
		}
		for id, stock := range seed.Combos {
			store.SetComboStock(id, stock)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown inventory backend %q", backend)
	}
}
