package cart

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Mode selects where cart mutations are persisted.
type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// Item is what the UI hands to AddItem: the target plus the data captured
// from the catalog at add time.
type Item struct {
	Ref       domain.LineRef
	UnitPrice int64
	Meta      domain.LineMeta
}

// Strategy persists cart mutations. The Store keeps the in-memory state and
// calls exactly one Strategy, chosen by identity, so no operation checks who
// the shopper is.
type Strategy interface {
	Mode() Mode
	// Load returns the persisted lines and saved items.
	Load(ctx context.Context) ([]domain.CartLine, []domain.SavedItem, error)
	// Add applies an add to lines and returns the resulting lines. Adding a ref
	// that already has a line increments that line by one.
	Add(ctx context.Context, lines []domain.CartLine, item Item, quantity int) ([]domain.CartLine, error)
	Remove(ctx context.Context, lineID string) error
	SetQuantity(ctx context.Context, lineID string, quantity int) error
	Clear(ctx context.Context) error
	Save(ctx context.Context, productID int64) error
	Unsave(ctx context.Context, productID int64) error
}

func findByRef(lines []domain.CartLine, ref domain.LineRef) int {
	for i, l := range lines {
		if l.Ref == ref {
			return i
		}
	}
	return -1
}

func findByID(lines []domain.CartLine, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}

func cloneSaved(saved []domain.SavedItem) []domain.SavedItem {
	if saved == nil {
		return nil
	}
	out := make([]domain.SavedItem, len(saved))
	copy(out, saved)
	return out
}
