package inventory

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

var ErrInsufficientStock = errors.New("insufficient stock")

// StockInfo is the bookkeeping kept for one variant or combo.
type StockInfo struct {
	Stock         int
	PurchaseCount int
}

// MemoryStore implements repository.InventoryRepository in memory with the
// same semantics as the Postgres tables: unknown ids are ignored and a batch
// that would drive any stock below zero changes nothing.
type MemoryStore struct {
	mu       sync.RWMutex
	variants map[int64]*StockInfo
	combos   map[int64]*StockInfo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		variants: make(map[int64]*StockInfo),
		combos:   make(map[int64]*StockInfo),
	}
}

func (s *MemoryStore) SetVariantStock(id int64, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[id] = &StockInfo{Stock: stock}
}

func (s *MemoryStore) SetComboStock(id int64, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combos[id] = &StockInfo{Stock: stock}
}

func (s *MemoryStore) Variant(id int64) (StockInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.variants[id]
	if !ok {
		return StockInfo{}, false
	}
	return *v, true
}

func (s *MemoryStore) Combo(id int64) (StockInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.combos[id]
	if !ok {
		return StockInfo{}, false
	}
	return *c, true
}

func insufficient(op string) error {
	return &repository.Error{Op: op, Code: repository.CodeInsufficientStock, Err: ErrInsufficientStock}
}

func (s *MemoryStore) DecrementVariantStock(_ context.Context, deltas []domain.StockDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: the whole batch must fit
	need := make(map[int64]int, len(deltas))
	for _, d := range deltas {
		need[d.ID] += d.Quantity
	}
	for id, qty := range need {
		if v, ok := s.variants[id]; ok && v.Stock < qty {
			return insufficient("decrement variant stock")
		}
	}

	for _, d := range deltas {
		if v, ok := s.variants[d.ID]; ok {
			v.Stock -= d.Quantity
		}
	}
	return nil
}

func (s *MemoryStore) IncrementPurchaseCounts(_ context.Context, deltas []domain.StockDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range deltas {
		if v, ok := s.variants[d.ID]; ok {
			v.PurchaseCount += d.Quantity
		}
	}
	return nil
}

func (s *MemoryStore) DecrementComboStock(_ context.Context, comboID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.combos[comboID]
	if !ok {
		return nil
	}
	if c.Stock < quantity {
		return insufficient("decrement combo stock")
	}
	c.Stock -= quantity
	return nil
}
