package repository

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/lib/pq"
)

func splitDeltas(deltas []domain.StockDelta) (pq.Int64Array, pq.Int64Array) {
	ids := make(pq.Int64Array, len(deltas))
	qty := make(pq.Int64Array, len(deltas))
	for i, d := range deltas {
		ids[i] = d.ID
		qty[i] = int64(d.Quantity)
	}
	return ids, qty
}

// DecrementVariantStock lowers stock for every variant in one statement. The
// stock >= 0 check constraint turns an oversell into CodeInsufficientStock.
func (r *Repository) DecrementVariantStock(ctx context.Context, deltas []domain.StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	ids, qty := splitDeltas(deltas)
	query := `UPDATE product_variants AS v
	          SET stock = v.stock - d.qty
	          FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::bigint[]) AS qty) AS d
	          WHERE v.id = d.id`

	_, err := r.db.ExecContext(ctx, query, ids, qty)
	return pgError("decrement variant stock", err)
}

func (r *Repository) IncrementPurchaseCounts(ctx context.Context, deltas []domain.StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	ids, qty := splitDeltas(deltas)
	query := `UPDATE product_variants AS v
	          SET purchase_count = v.purchase_count + d.qty
	          FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::bigint[]) AS qty) AS d
	          WHERE v.id = d.id`

	_, err := r.db.ExecContext(ctx, query, ids, qty)
	return pgError("increment purchase counts", err)
}

func (r *Repository) DecrementComboStock(ctx context.Context, comboID int64, quantity int) error {
	query := `UPDATE combos SET stock = stock - $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, quantity, comboID)
	return pgError("decrement combo stock", err)
}
