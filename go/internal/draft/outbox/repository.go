package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Repository reads and marks outbox rows. Rows are inserted by the room
// store inside the committing transaction, never here.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an outbox reader on the given database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FetchUnsent returns the oldest unsent events, up to limit.
func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_id, event_type, payload, created_at
		FROM draft_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var payload pqtype.NullRawMessage
		if err := rows.Scan(&e.ID, &e.RoomID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		if payload.Valid {
			e.Payload = []byte(payload.RawMessage)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkSent stamps an event as published.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE draft_outbox SET sent_at = now() WHERE id = $1`, id,
	); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}
