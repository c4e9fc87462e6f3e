package models

import "github.com/google/uuid"

// Player is read-only reference data owned by the catalog service.
type Player struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Position string    `json:"position"`
	Team     string    `json:"team,omitempty"`
	ADPRank  int       `json:"adp_rank"` // average draft position ordering, 1 is best
}
