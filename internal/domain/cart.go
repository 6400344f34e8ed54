package domain

import (
	"fmt"
	"time"
)

// RefKind tags what a cart line points at.
type RefKind string

const (
	RefVariant RefKind = "variant"
	RefCombo   RefKind = "combo"
)

// LineRef identifies the target of a cart line. Two refs are the same line
// when both the kind and the id match, so a LineRef can be compared with ==
// and used as a map key.
type LineRef struct {
	Kind RefKind `json:"kind" bson:"kind"`
	ID   int64   `json:"id" bson:"id"`
}

func Variant(variantID int64) LineRef {
	return LineRef{Kind: RefVariant, ID: variantID}
}

func Combo(comboID int64) LineRef {
	return LineRef{Kind: RefCombo, ID: comboID}
}

func (r LineRef) IsCombo() bool {
	return r.Kind == RefCombo
}

// Valid reports whether exactly one known tag is set with a positive id.
func (r LineRef) Valid() bool {
	return (r.Kind == RefVariant || r.Kind == RefCombo) && r.ID > 0
}

func (r LineRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// LineMeta is display data captured when the line was added.
type LineMeta struct {
	Name  string `json:"name" bson:"name"`
	Image string `json:"image,omitempty" bson:"image,omitempty"`
	Size  string `json:"size,omitempty" bson:"size,omitempty"`
}

type CartLine struct {
	ID        string    `json:"id" bson:"-"`
	Ref       LineRef   `json:"ref" bson:"ref"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	UnitPrice int64     `json:"unit_price" bson:"unit_price"`
	Meta      LineMeta  `json:"meta" bson:"meta"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// LineTotal is the price snapshot multiplied by quantity.
func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

type SavedItem struct {
	ProductID int64     `json:"product_id" bson:"product_id"`
	SavedAt   time.Time `json:"saved_at" bson:"saved_at"`
}

// CartSnapshot is an immutable copy of the cart handed to the UI and to checkout.
type CartSnapshot struct {
	Lines    []CartLine  `json:"lines"`
	Saved    []SavedItem `json:"saved"`
	Subtotal int64       `json:"subtotal"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Subtotal sums the line totals of the given lines.
func Subtotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}
