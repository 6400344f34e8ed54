package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/handoff"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
)

// MockOrders is an in-memory OrderRepository.
type MockOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
	lines  map[uuid.UUID][]domain.OrderLine

	InsertOrderErr error
	InsertLinesErr error
	CancelErr      error
	CancelMiss     bool
	GetErr         error

	InsertOrderCalls int
	InsertLineCalls  int
}

func NewMockOrders() *MockOrders {
	return &MockOrders{
		orders: map[uuid.UUID]*domain.Order{},
		lines:  map[uuid.UUID][]domain.OrderLine{},
	}
}

func (m *MockOrders) put(order domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = &order
}

func (m *MockOrders) get(id uuid.UUID) (domain.Order, []domain.OrderLine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, nil, false
	}
	return *o, m.lines[id], true
}

func (m *MockOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MockOrders) InsertOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertOrderCalls++
	if m.InsertOrderErr != nil {
		return m.InsertOrderErr
	}
	if _, exists := m.orders[order.ID]; exists {
		return &repository.Error{Op: "insert order", Code: repository.CodeDuplicate}
	}
	o := *order
	m.orders[order.ID] = &o
	return nil
}

func (m *MockOrders) InsertOrderLines(_ context.Context, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertLineCalls++
	if m.InsertLinesErr != nil {
		return m.InsertLinesErr
	}
	for _, l := range lines {
		m.lines[l.OrderID] = append(m.lines[l.OrderID], l)
	}
	return nil
}

func (m *MockOrders) CancelPending(_ context.Context, orderID uuid.UUID, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelErr != nil {
		return false, m.CancelErr
	}
	if m.CancelMiss {
		return false, nil
	}
	o, ok := m.orders[orderID]
	if !ok || o.OwnerID == nil || *o.OwnerID != ownerID || o.Status != domain.OrderStatusPending {
		return false, nil
	}
	o.Status = domain.OrderStatusCancelled
	return true, nil
}

func (m *MockOrders) GetOrderForOwner(_ context.Context, orderID uuid.UUID, ownerID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	o, ok := m.orders[orderID]
	if !ok || o.OwnerID == nil || *o.OwnerID != ownerID {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	cp.Lines = m.lines[orderID]
	return &cp, nil
}

func (m *MockOrders) ListOrdersByOwner(_ context.Context, ownerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.OwnerID != nil && *o.OwnerID == ownerID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

type MockAdjuster struct {
	mu       sync.Mutex
	Applied  [][]domain.InventoryAdjustment
	Deferred int
}

func (m *MockAdjuster) ApplyAll(_ context.Context, adjs []domain.InventoryAdjustment) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Applied = append(m.Applied, adjs)
	return m.Deferred
}

type MockHandoff struct {
	Texts  []string
	Result handoff.Result
}

func (m *MockHandoff) Deliver(_ context.Context, text string) handoff.Result {
	m.Texts = append(m.Texts, text)
	return m.Result
}

type MockOutbox struct {
	mu     sync.Mutex
	Events []*repository.OutboxEvent
	Err    error
}

func (m *MockOutbox) EnqueueEvent(_ context.Context, event *repository.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutbox) GetPendingEvents(context.Context, int, int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *MockOutbox) MarkEventAsProcessed(context.Context, int64) error { return nil }

func (m *MockOutbox) MarkEventAsFailed(context.Context, int64, string) error { return nil }

type fakeCart struct {
	snapshot domain.CartSnapshot
	cleared  int
	removed  []domain.CartLine
}

func (f *fakeCart) Snapshot() domain.CartSnapshot { return f.snapshot }

func (f *fakeCart) RemoveOrdered(_ context.Context, ordered []domain.CartLine) error {
	f.cleared++
	f.removed = append(f.removed, ordered...)
	f.snapshot = domain.CartSnapshot{}
	return nil
}
