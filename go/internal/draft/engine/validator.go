package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/draft/turnorder"
	"github.com/draftkit/draftroom/go/internal/models"
)

// DefaultGracePeriod is the extra time tolerated past the nominal per-turn
// timer, absorbing network latency between client and server.
const DefaultGracePeriod = 5 * time.Second

// Snapshot is a point-in-time read of everything the validator needs. The
// same struct is filled from a relaxed read (pre-check, possibly stale) or
// from reads inside the committing transaction (authoritative).
type Snapshot struct {
	Room   *models.DraftRoom
	Picks  []models.Pick
	Player *models.Player // nil when the catalog has no such player
	Now    time.Time
}

// PickPlan is the computed placement for a pick that passed validation.
type PickPlan struct {
	PickNumber     int
	Round          int
	PickInRound    int
	ParticipantIdx int
	Participant    models.Participant
}

// ValidateOptions tune validation per entry point. The rule set itself never
// varies between the pre-check and the transactional path.
type ValidateOptions struct {
	// BypassTimer skips the grace-period check. Set for autopick commits:
	// the expiry scheduler is the entity enforcing the timeout, not
	// violating it.
	BypassTimer bool
	GracePeriod time.Duration
}

// ValidatePick checks all preconditions for a proposed pick against a
// snapshot of room state, short-circuiting on the first failure. It is free
// of side effects so the committer can re-run it verbatim inside its
// transaction.
func ValidatePick(snap Snapshot, participantID uuid.UUID, limits models.PositionLimits, opts ValidateOptions) (*PickPlan, error) {
	room := snap.Room
	if room == nil {
		return nil, NewError(CodeRoomNotFound, "draft room not found")
	}

	switch room.Status {
	case models.RoomStatusActive:
	case models.RoomStatusComplete:
		return nil, NewError(CodeDraftComplete, "draft is complete")
	default:
		return nil, NewError(CodeDraftNotActive, "draft is %s", room.Status)
	}

	if room.CurrentPickNumber > room.TotalPicks() {
		return nil, NewError(CodeDraftComplete, "all %d picks have been made", room.TotalPicks())
	}

	occupantIdx := turnorder.ParticipantIndexForPick(room.CurrentPickNumber, room.TeamCount)
	occupant, ok := room.ParticipantAtPosition(occupantIdx + 1)
	if !ok {
		return nil, NewError(CodeInvalidState, "no participant at draft position %d", occupantIdx+1)
	}
	if occupant.ID != participantID {
		return nil, NewError(CodeNotYourTurn, "pick %d belongs to another participant", room.CurrentPickNumber)
	}

	if !opts.BypassTimer && room.TimerStartedAt != nil {
		grace := opts.GracePeriod
		if grace == 0 {
			grace = DefaultGracePeriod
		}
		allowed := time.Duration(room.PickTimeSec)*time.Second + grace
		if snap.Now.Sub(*room.TimerStartedAt) > allowed {
			return nil, NewError(CodeTimerExpired, "pick timer expired")
		}
	}

	player := snap.Player
	if player == nil {
		return nil, NewError(CodeEntityNotFound, "player not found in catalog")
	}
	for _, p := range snap.Picks {
		if p.PlayerID == player.ID {
			return nil, NewError(CodeEntityUnavailable, "player %s already drafted at pick %d", player.ID, p.PickNumber)
		}
	}

	if limit, capped := limits.Limit(player.Position); capped {
		counts := roster.CountPositions(snap.Picks, occupantIdx)
		if counts[player.Position] >= limit {
			return nil, NewError(CodePositionLimitReached, "%s limit of %d reached", player.Position, limit)
		}
	}

	info := turnorder.PickInfo(room.CurrentPickNumber, room.TeamCount)
	return &PickPlan{
		PickNumber:     room.CurrentPickNumber,
		Round:          info.Round,
		PickInRound:    info.PickInRound,
		ParticipantIdx: occupantIdx,
		Participant:    occupant,
	}, nil
}
