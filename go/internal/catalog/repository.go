// Package catalog reads player reference data. The engine only consumes it;
// players are owned and loaded by an external ingestion pipeline.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/draftkit/draftroom/go/internal/models"
)

// Repository is the Postgres-backed player catalog.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a catalog on the given database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetPlayer looks a player up by id. Returns (nil, nil) when the id is
// unknown; the caller decides what an absent player means.
func (r *Repository) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, position, team, adp_rank
		FROM players
		WHERE id = $1`, playerID,
	)
	var p models.Player
	if err := row.Scan(&p.ID, &p.FullName, &p.Position, &p.Team, &p.ADPRank); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// ListAvailablePlayers returns all players not yet drafted in the given
// room, best ADP first.
func (r *Repository) ListAvailablePlayers(ctx context.Context, roomID uuid.UUID) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.full_name, p.position, p.team, p.adp_rank
		FROM players p
		WHERE NOT EXISTS (
			SELECT 1 FROM draft_picks dp
			WHERE dp.room_id = $1 AND dp.player_id = p.id
		)
		ORDER BY p.adp_rank`, roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list available players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.FullName, &p.Position, &p.Team, &p.ADPRank); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
