package http

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/google/uuid"
)

// memCartRepo is an in-memory CartRepository.
type memCartRepo struct {
	mu     sync.Mutex
	lines  map[string][]domain.CartLine
	saved  map[string][]domain.SavedItem
	nextID int
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{
		lines: map[string][]domain.CartLine{},
		saved: map[string][]domain.SavedItem{},
	}
}

func (m *memCartRepo) ListLines(_ context.Context, userID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartLine(nil), m.lines[userID]...), nil
}

func (m *memCartRepo) InsertLine(_ context.Context, userID string, line domain.CartLine) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines[userID] {
		if l.Ref == line.Ref {
			return "", &repository.Error{Op: "insert cart line", Code: repository.CodeDuplicate}
		}
	}
	m.nextID++
	line.ID = fmt.Sprintf("db-%d", m.nextID)
	m.lines[userID] = append(m.lines[userID], line)
	return line.ID, nil
}

func (m *memCartRepo) UpdateLineQuantity(_ context.Context, userID, lineID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.lines[userID] {
		if l.ID == lineID {
			m.lines[userID][i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrLineNotFound
}

func (m *memCartRepo) DeleteLine(_ context.Context, userID, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.lines[userID]
	for i, l := range lines {
		if l.ID == lineID {
			m.lines[userID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memCartRepo) DeleteAllLines(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, userID)
	return nil
}

func (m *memCartRepo) ListSaved(_ context.Context, userID string) ([]domain.SavedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SavedItem(nil), m.saved[userID]...), nil
}

func (m *memCartRepo) InsertSaved(_ context.Context, userID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.saved[userID] {
		if s.ProductID == productID {
			return nil
		}
	}
	m.saved[userID] = append(m.saved[userID], domain.SavedItem{ProductID: productID})
	return nil
}

func (m *memCartRepo) DeleteSaved(_ context.Context, userID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.saved[userID]
	for i, s := range items {
		if s.ProductID == productID {
			m.saved[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memCartRepo) stored(userID string) []domain.CartLine {
	lines, _ := m.ListLines(context.Background(), userID)
	return lines
}

type mockPlacer struct {
	mu      sync.Mutex
	conf    *checkout.Confirmation
	err     error
	owners  []string
	carts   []checkout.Cart
	checker *checkout.Validator
}

func newMockPlacer() *mockPlacer {
	return &mockPlacer{checker: checkout.NewValidator()}
}

func (m *mockPlacer) Validate(form domain.CheckoutForm) checkout.ValidationErrors {
	return m.checker.Validate(form)
}

func (m *mockPlacer) Totals(snapshot domain.CartSnapshot, method domain.DeliveryMethod) checkout.Totals {
	return checkout.ComputeTotals(snapshot.Lines, method, 500)
}

func (m *mockPlacer) PlaceOrder(_ context.Context, cart checkout.Cart, _ domain.CheckoutForm, ownerID string) (*checkout.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners = append(m.owners, ownerID)
	m.carts = append(m.carts, cart)
	return m.conf, m.err
}

type mockCanceller struct {
	order   *domain.Order
	err     error
	history []*domain.Order
	calls   []string
}

func (m *mockCanceller) Cancel(_ context.Context, orderID uuid.UUID, requesterID string) (*domain.Order, error) {
	m.calls = append(m.calls, orderID.String()+"/"+requesterID)
	return m.order, m.err
}

func (m *mockCanceller) History(_ context.Context, ownerID string) ([]*domain.Order, error) {
	m.calls = append(m.calls, "history/"+ownerID)
	return m.history, m.err
}
