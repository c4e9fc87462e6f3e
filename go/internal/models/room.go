package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus defines the lifecycle state of a draft room.
type RoomStatus string

const (
	RoomStatusPreDraft RoomStatus = "PRE_DRAFT"
	RoomStatusActive   RoomStatus = "ACTIVE"
	RoomStatusPaused   RoomStatus = "PAUSED"
	RoomStatusComplete RoomStatus = "COMPLETE"
)

// Participant is one seat in a draft room. Seats are fixed at room creation
// and ordered by DraftPosition (1-indexed, round-one order).
type Participant struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	DraftPosition int       `json:"draft_position"`
}

// DraftRoom represents one contest instance. CurrentPickNumber is 1-indexed
// and only ever advanced by the turn committer; the value TotalPicks()+1
// coincides with RoomStatusComplete.
type DraftRoom struct {
	ID                uuid.UUID     `json:"id"`
	Status            RoomStatus    `json:"status"`
	CurrentPickNumber int           `json:"current_pick_number"`
	TeamCount         int           `json:"team_count"`
	RosterSize        int           `json:"roster_size"`
	PickTimeSec       int           `json:"pick_time_sec"`
	TimerStartedAt    *time.Time    `json:"timer_started_at,omitempty"`
	Participants      []Participant `json:"participants"`
	CreatedAt         time.Time     `json:"created_at"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// TotalPicks returns the number of picks in a full draft.
func (r *DraftRoom) TotalPicks() int {
	return r.TeamCount * r.RosterSize
}

// ParticipantAtPosition returns the participant seated at the given
// 1-indexed draft position.
func (r *DraftRoom) ParticipantAtPosition(draftPosition int) (Participant, bool) {
	for _, p := range r.Participants {
		if p.DraftPosition == draftPosition {
			return p, true
		}
	}
	return Participant{}, false
}

// ParticipantByID returns the participant with the given id.
func (r *DraftRoom) ParticipantByID(id uuid.UUID) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}
