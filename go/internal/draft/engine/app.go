package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftkit/draftroom/go/internal/draft/events"
	"github.com/draftkit/draftroom/go/internal/models"
)

// SystemActor is the user id the turn-expiry scheduler commits as. It skips
// the participant-identity check because the system picks on the
// participant's behalf.
var SystemActor = uuid.Nil

// Config carries the engine's policy knobs.
type Config struct {
	Limits      models.PositionLimits
	GracePeriod time.Duration
}

// App is the engine facade the boundary layer calls. It owns the committer
// and projector and performs the identity check on commits.
type App struct {
	store     RoomStore
	catalog   Catalog
	committer *Committer
	projector *Projector
	limits    models.PositionLimits
	grace     time.Duration
	clock     clockwork.Clock
}

// NewApp wires the engine from its collaborators.
func NewApp(store RoomStore, catalog Catalog, projector *Projector, sideFx SideEffects, cfg Config, clock clockwork.Clock) *App {
	limits := cfg.Limits
	if limits == nil {
		limits = models.DefaultPositionLimits()
	}
	grace := cfg.GracePeriod
	if grace == 0 {
		grace = DefaultGracePeriod
	}
	return &App{
		store:     store,
		catalog:   catalog,
		committer: NewCommitter(store, catalog, limits, grace, clock, sideFx),
		projector: projector,
		limits:    limits,
		grace:     grace,
		clock:     clock,
	}
}

// ValidatePick runs the read-only pre-check against a relaxed snapshot. The
// result may be milliseconds stale; only the committer's transactional
// re-validation is authoritative. expectedPickNumber guards clients against
// acting on an already-advanced turn; pass 0 to skip that check.
func (a *App) ValidatePick(ctx context.Context, roomID, participantID, playerID uuid.UUID, expectedPickNumber int) (*PickPlan, error) {
	room, err := a.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if expectedPickNumber != 0 && room.CurrentPickNumber != expectedPickNumber {
		return nil, NewError(CodeNotYourTurn, "turn has advanced to pick %d", room.CurrentPickNumber)
	}
	picks, err := a.store.ListPicks(ctx, roomID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	player, err := a.catalog.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, WrapInfra(err)
	}

	snap := Snapshot{Room: room, Picks: picks, Player: player, Now: a.clock.Now()}
	return ValidatePick(snap, participantID, a.limits, ValidateOptions{GracePeriod: a.grace})
}

// CommitPick performs the authoritative transition. actorUserID is the
// verified identity of the caller; a commit naming a participant that does
// not belong to the actor is rejected before any transaction.
func (a *App) CommitPick(ctx context.Context, actorUserID uuid.UUID, req CommitRequest) (*CommitResult, error) {
	if req.RoomID == uuid.Nil || req.ParticipantID == uuid.Nil || req.PlayerID == uuid.Nil {
		return nil, NewError(CodeEntityNotFound, "room_id, participant_id and player_id are required")
	}
	if req.Source == "" {
		req.Source = models.PickSourceManual
	}

	if actorUserID != SystemActor {
		room, err := a.store.GetRoom(ctx, req.RoomID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		participant, ok := room.ParticipantByID(req.ParticipantID)
		if !ok {
			return nil, NewError(CodeNotYourTurn, "participant %s is not in room %s", req.ParticipantID, req.RoomID)
		}
		if participant.UserID != actorUserID {
			return nil, NewError(CodeNotYourTurn, "participant does not belong to caller")
		}
	}

	return a.committer.Commit(ctx, req)
}

// GetParticipantView computes the derived turn view for a polling client.
func (a *App) GetParticipantView(ctx context.Context, roomID, participantID uuid.UUID) (*ParticipantTurnView, error) {
	view, err := a.projector.ParticipantView(ctx, roomID, participantID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return view, nil
}

// StartDraft moves a room from pre-draft to active and starts the first
// pick's timer.
func (a *App) StartDraft(ctx context.Context, roomID uuid.UUID) error {
	err := a.store.WithinRoomTxn(ctx, roomID, func(ctx context.Context, txn RoomTxn) error {
		room, err := txn.Room(ctx)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusPreDraft {
			return transitionErr(room.Status, "start")
		}
		now := a.clock.Now()
		room.Status = models.RoomStatusActive
		room.TimerStartedAt = &now
		if err := txn.UpdateRoom(ctx, room); err != nil {
			return err
		}
		payload, err := json.Marshal(events.DraftStartedPayload{
			RoomID:     room.ID.String(),
			StartedAt:  now,
			TeamCount:  room.TeamCount,
			TotalPicks: room.TotalPicks(),
		})
		if err != nil {
			return err
		}
		return txn.InsertEvent(ctx, events.TypeDraftStarted, payload)
	})
	if err != nil {
		return mapStoreErr(err)
	}
	log.Info().Str("room_id", roomID.String()).Msg("draft started")
	return nil
}

// PauseDraft suspends an active room. The pick timer stops; resume restarts
// it with a full allowance.
func (a *App) PauseDraft(ctx context.Context, roomID uuid.UUID, reason string) error {
	err := a.store.WithinRoomTxn(ctx, roomID, func(ctx context.Context, txn RoomTxn) error {
		room, err := txn.Room(ctx)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusActive {
			return transitionErr(room.Status, "pause")
		}
		now := a.clock.Now()
		room.Status = models.RoomStatusPaused
		room.TimerStartedAt = nil
		if err := txn.UpdateRoom(ctx, room); err != nil {
			return err
		}
		payload, err := json.Marshal(events.DraftPausedPayload{
			RoomID:   room.ID.String(),
			PausedAt: now,
			Reason:   reason,
		})
		if err != nil {
			return err
		}
		return txn.InsertEvent(ctx, events.TypeDraftPaused, payload)
	})
	if err != nil {
		return mapStoreErr(err)
	}
	log.Info().Str("room_id", roomID.String()).Str("reason", reason).Msg("draft paused")
	return nil
}

// ResumeDraft reactivates a paused room and restarts the current pick timer.
func (a *App) ResumeDraft(ctx context.Context, roomID uuid.UUID) error {
	err := a.store.WithinRoomTxn(ctx, roomID, func(ctx context.Context, txn RoomTxn) error {
		room, err := txn.Room(ctx)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusPaused {
			return transitionErr(room.Status, "resume")
		}
		now := a.clock.Now()
		room.Status = models.RoomStatusActive
		room.TimerStartedAt = &now
		if err := txn.UpdateRoom(ctx, room); err != nil {
			return err
		}
		payload, err := json.Marshal(events.DraftResumedPayload{
			RoomID:    room.ID.String(),
			ResumedAt: now,
		})
		if err != nil {
			return err
		}
		return txn.InsertEvent(ctx, events.TypeDraftResumed, payload)
	})
	if err != nil {
		return mapStoreErr(err)
	}
	log.Info().Str("room_id", roomID.String()).Msg("draft resumed")
	return nil
}

func transitionErr(status models.RoomStatus, verb string) *DraftError {
	switch status {
	case models.RoomStatusComplete:
		return NewError(CodeDraftComplete, "cannot %s a completed draft", verb)
	default:
		return NewError(CodeDraftNotActive, "cannot %s a %s draft", verb, status)
	}
}

// mapStoreErr passes tagged domain errors through untouched and wraps
// everything else as infrastructure.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var de *DraftError
	if errors.As(err, &de) {
		return de
	}
	return WrapInfra(err)
}
