package domain

// AdjustmentKind names one inventory bookkeeping call made after an order.
type AdjustmentKind string

const (
	AdjustVariantStock   AdjustmentKind = "variant_stock_decrement"
	AdjustPurchaseCounts AdjustmentKind = "purchase_count_increment"
	AdjustComboStock     AdjustmentKind = "combo_stock_decrement"
)

type StockDelta struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// InventoryAdjustment is a single retryable unit of stock bookkeeping.
// Combo adjustments always carry exactly one delta.
type InventoryAdjustment struct {
	OrderID string         `json:"order_id"`
	Kind    AdjustmentKind `json:"kind"`
	Deltas  []StockDelta   `json:"deltas"`
}

// AdjustmentsFor derives the bookkeeping an order implies: one batch stock
// decrement and one batch purchase-count increment over all variant lines,
// plus one stock decrement per combo line.
func AdjustmentsFor(orderID string, lines []CartLine) []InventoryAdjustment {
	var variants []StockDelta
	var combos []InventoryAdjustment
	for _, l := range lines {
		d := StockDelta{ID: l.Ref.ID, Quantity: l.Quantity}
		if l.Ref.IsCombo() {
			combos = append(combos, InventoryAdjustment{
				OrderID: orderID,
				Kind:    AdjustComboStock,
				Deltas:  []StockDelta{d},
			})
			continue
		}
		variants = append(variants, d)
	}

	var out []InventoryAdjustment
	if len(variants) > 0 {
		out = append(out,
			InventoryAdjustment{OrderID: orderID, Kind: AdjustVariantStock, Deltas: variants},
			InventoryAdjustment{OrderID: orderID, Kind: AdjustPurchaseCounts, Deltas: variants},
		)
	}
	return append(out, combos...)
}
