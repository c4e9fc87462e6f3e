// Package queue stores each participant's ranked list of preferred players,
// consumed by the autopick strategy when their timer expires.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/draftkit/draftroom/go/internal/models"
)

// Repository is the Postgres-backed pick queue.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a queue store on the given database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// AddEntry appends a player to a participant's queue at the given rank.
func (r *Repository) AddEntry(ctx context.Context, roomID, participantID, playerID uuid.UUID, rank int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO draft_queue_entries (room_id, participant_id, player_id, rank)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_id, participant_id, player_id) DO UPDATE SET rank = $4`,
		roomID, participantID, playerID, rank,
	)
	if err != nil {
		return fmt.Errorf("failed to add queue entry: %w", err)
	}
	return nil
}

// RemoveEntry drops a player from a participant's queue.
func (r *Repository) RemoveEntry(ctx context.Context, roomID, participantID, playerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM draft_queue_entries
		WHERE room_id = $1 AND participant_id = $2 AND player_id = $3`,
		roomID, participantID, playerID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove queue entry: %w", err)
	}
	return nil
}

// NextQueuedPlayer returns the best-ranked queued player who has not been
// drafted in the room yet, or (nil, nil) when the queue is exhausted.
func (r *Repository) NextQueuedPlayer(ctx context.Context, roomID, participantID uuid.UUID) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.full_name, p.position, p.team, p.adp_rank
		FROM draft_queue_entries q
		JOIN players p ON p.id = q.player_id
		WHERE q.room_id = $1
		  AND q.participant_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM draft_picks dp
			WHERE dp.room_id = q.room_id AND dp.player_id = q.player_id
		  )
		ORDER BY q.rank
		LIMIT 1`,
		roomID, participantID,
	)
	var p models.Player
	if err := row.Scan(&p.ID, &p.FullName, &p.Position, &p.Team, &p.ADPRank); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next queued player: %w", err)
	}
	return &p, nil
}
