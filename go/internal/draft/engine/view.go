package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/draft/turnorder"
	"github.com/draftkit/draftroom/go/internal/models"
)

// ViewStatus is the coarse state a polling client renders for a participant.
type ViewStatus string

const (
	ViewStatusYourTurn ViewStatus = "YOUR_TURN"
	ViewStatusWaiting  ViewStatus = "WAITING"
	ViewStatusPaused   ViewStatus = "PAUSED"
	ViewStatusComplete ViewStatus = "COMPLETE"
)

// ParticipantTurnView is derived on demand from committed state and never
// persisted. TimeLeftSec is nil unless it is the participant's turn; no
// countdown is running for anyone else.
type ParticipantTurnView struct {
	RoomID            uuid.UUID      `json:"room_id"`
	ParticipantID     uuid.UUID      `json:"participant_id"`
	Status            ViewStatus     `json:"status"`
	CurrentPickNumber int            `json:"current_pick_number"`
	Round             int            `json:"round"`
	PicksAway         int            `json:"picks_away"`
	TimeLeftSec       *int           `json:"time_left_sec,omitempty"`
	PositionCounts    map[string]int `json:"position_counts"`
	PositionNeeds     []roster.Need  `json:"position_needs"`
}

// Projector reconstructs point-in-time views for polling clients. Reads are
// relaxed (non-transactional); the atomic commit guarantees a view observes
// either the pre-commit or post-commit state of a pick, never a mix.
type Projector struct {
	store  RoomStore
	clock  clockwork.Clock
	reqs   []roster.Requirement
	policy roster.UrgencyPolicy
}

// NewProjector builds a view projector.
func NewProjector(store RoomStore, clock clockwork.Clock, reqs []roster.Requirement, policy roster.UrgencyPolicy) *Projector {
	return &Projector{store: store, clock: clock, reqs: reqs, policy: policy}
}

// ParticipantView computes the turn view for one participant.
func (p *Projector) ParticipantView(ctx context.Context, roomID, participantID uuid.UUID) (*ParticipantTurnView, error) {
	room, err := p.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participant, ok := room.ParticipantByID(participantID)
	if !ok {
		return nil, NewError(CodeRoomNotFound, "participant %s is not in room %s", participantID, roomID)
	}
	picks, err := p.store.ListPicks(ctx, roomID)
	if err != nil {
		return nil, err
	}

	idx := participant.DraftPosition - 1
	counts := roster.CountPositions(picks, idx)

	view := &ParticipantTurnView{
		RoomID:            room.ID,
		ParticipantID:     participant.ID,
		CurrentPickNumber: room.CurrentPickNumber,
		PositionCounts:    counts,
	}

	switch room.Status {
	case models.RoomStatusComplete:
		view.Status = ViewStatusComplete
		view.Round = room.RosterSize
		view.PositionNeeds = roster.PositionNeeds(counts, room.RosterSize, p.reqs, p.policy)
		return view, nil
	case models.RoomStatusPaused:
		view.Status = ViewStatusPaused
	case models.RoomStatusActive:
		view.Status = ViewStatusWaiting
	default:
		view.Status = ViewStatusWaiting
	}

	info := turnorder.PickInfo(room.CurrentPickNumber, room.TeamCount)
	view.Round = info.Round
	view.PicksAway = turnorder.PicksAway(room.CurrentPickNumber, participant.DraftPosition, room.TeamCount)
	view.PositionNeeds = roster.PositionNeeds(counts, info.Round, p.reqs, p.policy)

	if room.Status == models.RoomStatusActive && view.PicksAway == 0 {
		view.Status = ViewStatusYourTurn
		if room.TimerStartedAt != nil {
			elapsed := p.clock.Now().Sub(*room.TimerStartedAt)
			left := room.PickTimeSec - int(elapsed.Seconds())
			if left < 0 {
				left = 0
			}
			view.TimeLeftSec = &left
		}
	}

	return view, nil
}
