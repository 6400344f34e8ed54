package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
)

type mockRepository struct {
	m      sync.Mutex
	lines  map[string][]domain.CartLine
	saved  map[string][]domain.SavedItem
	nextID int

	listErr   error
	insertErr error
	updateErr error
	deleteErr error
	savedErr  error
	failRef   *domain.LineRef

	calls map[string]int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		lines: map[string][]domain.CartLine{},
		saved: map[string][]domain.SavedItem{},
		calls: map[string]int{},
	}
}

func (m *mockRepository) seed(userID string, lines ...domain.CartLine) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, l := range lines {
		m.nextID++
		l.ID = fmt.Sprintf("db-%d", m.nextID)
		m.lines[userID] = append(m.lines[userID], l)
	}
}

func (m *mockRepository) stored(userID string) []domain.CartLine {
	m.m.Lock()
	defer m.m.Unlock()
	return cloneLines(m.lines[userID])
}

func (m *mockRepository) storedSaved(userID string) []domain.SavedItem {
	m.m.Lock()
	defer m.m.Unlock()
	return cloneSaved(m.saved[userID])
}

func (m *mockRepository) callCount(name string) int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls[name]
}

func (m *mockRepository) ListLines(_ context.Context, userID string) ([]domain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["ListLines"]++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return cloneLines(m.lines[userID]), nil
}

func (m *mockRepository) InsertLine(_ context.Context, userID string, line domain.CartLine) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["InsertLine"]++
	if m.insertErr != nil {
		return "", m.insertErr
	}
	if m.failRef != nil && *m.failRef == line.Ref {
		return "", &repository.Error{Op: "insert cart line", Code: repository.CodeUnavailable, Err: fmt.Errorf("connection reset")}
	}
	for _, l := range m.lines[userID] {
		if l.Ref == line.Ref {
			return "", &repository.Error{Op: "insert cart line", Code: repository.CodeDuplicate, Err: fmt.Errorf("E11000")}
		}
	}
	m.nextID++
	line.ID = fmt.Sprintf("db-%d", m.nextID)
	m.lines[userID] = append(m.lines[userID], line)
	return line.ID, nil
}

func (m *mockRepository) UpdateLineQuantity(_ context.Context, userID, lineID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["UpdateLineQuantity"]++
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.lines[userID] {
		if m.lines[userID][i].ID == lineID {
			m.lines[userID][i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrLineNotFound
}

func (m *mockRepository) DeleteLine(_ context.Context, userID, lineID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["DeleteLine"]++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	lines := m.lines[userID]
	for i := range lines {
		if lines[i].ID == lineID {
			m.lines[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockRepository) DeleteAllLines(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["DeleteAllLines"]++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.lines, userID)
	return nil
}

func (m *mockRepository) ListSaved(_ context.Context, userID string) ([]domain.SavedItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["ListSaved"]++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return cloneSaved(m.saved[userID]), nil
}

func (m *mockRepository) InsertSaved(_ context.Context, userID string, productID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["InsertSaved"]++
	if m.savedErr != nil {
		return m.savedErr
	}
	for _, s := range m.saved[userID] {
		if s.ProductID == productID {
			return nil
		}
	}
	m.saved[userID] = append(m.saved[userID], domain.SavedItem{ProductID: productID, SavedAt: time.Now()})
	return nil
}

func (m *mockRepository) DeleteSaved(_ context.Context, userID string, productID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls["DeleteSaved"]++
	if m.savedErr != nil {
		return m.savedErr
	}
	items := m.saved[userID]
	for i := range items {
		if items[i].ProductID == productID {
			m.saved[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

type mockCache struct {
	m       sync.Mutex
	carts   map[string]*domain.CartSnapshot
	deletes int
	err     error
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.CartSnapshot{}}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.CartSnapshot, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Set(_ context.Context, userID string, cart *domain.CartSnapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[userID] = cart
	return m.err
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	delete(m.carts, userID)
	return m.err
}

func (m *mockCache) cached(userID string) *domain.CartSnapshot {
	m.m.Lock()
	defer m.m.Unlock()
	return m.carts[userID]
}

func (m *mockCache) deleteCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.deletes
}
