package models

import (
	"time"

	"github.com/google/uuid"
)

// PickSource identifies how a pick was produced.
type PickSource string

const (
	PickSourceManual        PickSource = "MANUAL"
	PickSourceQueue         PickSource = "QUEUE"
	PickSourceCustomRanking PickSource = "CUSTOM_RANKING"
	PickSourceADPDefault    PickSource = "ADP_DEFAULT"
	PickSourceQuickPick     PickSource = "QUICK_PICK"
)

// Pick is an immutable record of one committed turn. Within a room, pick
// numbers are dense (1..N) and player ids are unique.
type Pick struct {
	ID             uuid.UUID      `json:"id"`
	RoomID         uuid.UUID      `json:"room_id"`
	PickNumber     int            `json:"pick_number"` // overall, 1-indexed
	Round          int            `json:"round"`
	PickInRound    int            `json:"pick_in_round"`
	ParticipantID  uuid.UUID      `json:"participant_id"`
	ParticipantIdx int            `json:"participant_idx"` // 0-indexed round-one slot
	PlayerID       uuid.UUID      `json:"player_id"`
	PlayerPosition string         `json:"player_position"`
	Source         PickSource     `json:"source"`
	IsAutopick     bool           `json:"is_autopick"`
	RosterSnapshot map[string]int `json:"roster_snapshot"` // per-position counts including this pick
	PickedAt       time.Time      `json:"picked_at"`
}
