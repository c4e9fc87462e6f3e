package events

import (
	"time"
)

// Event types written to the room outbox and relayed to the bus.
const (
	TypePickMade       = "PickMade"
	TypeDraftStarted   = "DraftStarted"
	TypeDraftPaused    = "DraftPaused"
	TypeDraftResumed   = "DraftResumed"
	TypeDraftCompleted = "DraftCompleted"
)

// PickMadePayload is the payload for a PickMade event.
type PickMadePayload struct {
	PickID         string    `json:"pick_id"`
	RoomID         string    `json:"room_id"`
	ParticipantID  string    `json:"participant_id"`
	PlayerID       string    `json:"player_id"`
	PlayerPosition string    `json:"player_position"`
	Round          int       `json:"round"`
	PickInRound    int       `json:"pick_in_round"`
	PickNumber     int       `json:"pick_number"`
	Source         string    `json:"source"`
	IsAutopick     bool      `json:"is_autopick"`
	MadeAt         time.Time `json:"made_at"`
}

// DraftStartedPayload is the payload for a DraftStarted event.
type DraftStartedPayload struct {
	RoomID     string    `json:"room_id"`
	StartedAt  time.Time `json:"started_at"`
	TeamCount  int       `json:"team_count"`
	TotalPicks int       `json:"total_picks"`
}

// DraftPausedPayload is the payload for a DraftPaused event.
type DraftPausedPayload struct {
	RoomID   string    `json:"room_id"`
	PausedAt time.Time `json:"paused_at"`
	Reason   string    `json:"reason"`
}

// DraftResumedPayload is the payload for a DraftResumed event.
type DraftResumedPayload struct {
	RoomID    string    `json:"room_id"`
	ResumedAt time.Time `json:"resumed_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event.
type DraftCompletedPayload struct {
	RoomID      string    `json:"room_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}
