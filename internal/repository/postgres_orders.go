package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

const orderColumns = `id, owner_id, customer_name, phone, address, delivery_method, payment_method,
	comment, delivery_time, subtotal, delivery_cost, total, status, created_at`

func (r *Repository) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (id, owner_id, customer_name, phone, address, delivery_method, payment_method,
	                              comment, delivery_time, subtotal, delivery_cost, total, status, created_at)
	          VALUES (:id, :owner_id, :customer_name, :phone, :address, :delivery_method, :payment_method,
	                  :comment, :delivery_time, :subtotal, :delivery_cost, :total, :status, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, order)
	return pgError("insert order", err)
}

// InsertOrderLines writes every line in a single multi-row statement.
func (r *Repository) InsertOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `INSERT INTO order_lines (order_id, ref_kind, ref_id, name, image, size, quantity, price_at_purchase)
	          VALUES (:order_id, :ref_kind, :ref_id, :name, :image, :size, :quantity, :price_at_purchase)`

	_, err := r.db.NamedExecContext(ctx, query, lines)
	return pgError("insert order lines", err)
}

func (r *Repository) CancelPending(ctx context.Context, orderID uuid.UUID, ownerID string) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW()
	          WHERE id = $2 AND owner_id = $3 AND status = $4`

	res, err := r.db.ExecContext(ctx, query,
		domain.OrderStatusCancelled,
		orderID,
		ownerID,
		domain.OrderStatusPending)
	if err != nil {
		return false, pgError("cancel order", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, pgError("cancel order", err)
	}
	return n == 1, nil
}

func (r *Repository) GetOrderForOwner(ctx context.Context, orderID uuid.UUID, ownerID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND owner_id = $2`

	var order domain.Order
	err := r.db.GetContext(ctx, &order, query, orderID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, pgError("get order", err)
	}

	lines, err := r.listOrderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return &order, nil
}

func (r *Repository) ListOrdersByOwner(ctx context.Context, ownerID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE owner_id = $1 ORDER BY created_at DESC`

	var orders []*domain.Order
	if err := r.db.SelectContext(ctx, &orders, query, ownerID); err != nil {
		return nil, pgError("list orders", err)
	}
	for _, o := range orders {
		lines, err := r.listOrderLines(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}
	return orders, nil
}

func (r *Repository) listOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	query := `SELECT order_id, ref_kind, ref_id, name, image, size, quantity, price_at_purchase
	          FROM order_lines WHERE order_id = $1 ORDER BY id`

	var lines []domain.OrderLine
	if err := r.db.SelectContext(ctx, &lines, query, orderID); err != nil {
		return nil, pgError("list order lines", err)
	}
	return lines, nil
}
