package repository

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventInventoryAdjustment = "InventoryAdjustment"
	EventOrderPlaced         = "OrderPlaced"
)

type OutboxEvent struct {
	ID          int64           `db:"id"`
	AggregateId string          `db:"aggregate_id"`
	EventType   string          `db:"event_type"`
	Payload     json.RawMessage `db:"payload"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (r *Repository) EnqueueEvent(ctx context.Context, event *OutboxEvent) error {
	query := `INSERT INTO outbox_events (aggregate_id, event_type, payload, last_error, created_at)
	          VALUES ($1, $2, $3, $4, NOW())
	          RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		event.AggregateId,
		event.EventType,
		[]byte(event.Payload),
		event.LastError).Scan(&event.ID, &event.CreatedAt)
	return pgError("enqueue outbox event", err)
}

// GetPendingEvents returns unprocessed events that still have attempts left,
// oldest first.
func (r *Repository) GetPendingEvents(ctx context.Context, limit, maxAttempts int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, attempts, last_error, created_at
	          FROM outbox_events
	          WHERE processed_at IS NULL AND attempts < $1
	          ORDER BY created_at, id
	          LIMIT $2`

	var events []*OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, maxAttempts, limit); err != nil {
		return nil, pgError("get pending events", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	query := `UPDATE outbox_events SET processed_at = NOW(), last_error = NULL WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return pgError("mark event processed", err)
}

func (r *Repository) MarkEventAsFailed(ctx context.Context, id int64, reason string) error {
	query := `UPDATE outbox_events SET attempts = attempts + 1, last_error = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, reason)
	return pgError("mark event failed", err)
}
