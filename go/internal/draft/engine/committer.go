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
	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/models"
)

// RoomTxn is the unit of serializable work the store exposes to the
// committer. All reads observe the transaction's snapshot; all writes become
// visible together at commit or not at all.
type RoomTxn interface {
	Room(ctx context.Context) (*models.DraftRoom, error)
	Picks(ctx context.Context) ([]models.Pick, error)
	InsertPick(ctx context.Context, pick models.Pick) error
	UpdateRoom(ctx context.Context, room *models.DraftRoom) error
	InsertEvent(ctx context.Context, eventType string, payload []byte) error
}

// RoomStore abstracts the transactional document store. WithinRoomTxn must
// run fn under serializable isolation with respect to other transactions on
// the same room, retrying serialization conflicts internally so that losers
// of a race re-validate and receive a definite domain error.
type RoomStore interface {
	GetRoom(ctx context.Context, roomID uuid.UUID) (*models.DraftRoom, error)
	ListPicks(ctx context.Context, roomID uuid.UUID) ([]models.Pick, error)
	WithinRoomTxn(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context, txn RoomTxn) error) error
}

// Catalog supplies player reference data. GetPlayer returns (nil, nil) when
// the id is unknown.
type Catalog interface {
	GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error)
}

// SideEffects receives best-effort downstream triggers after a successful
// commit. Implementations must never block the caller and their failures
// must never surface as a pick failure.
type SideEffects interface {
	PickCommitted(room *models.DraftRoom, pick models.Pick)
	DraftCompleted(room *models.DraftRoom, completedAt time.Time)
}

// CommitRequest describes one attempted turn transition.
type CommitRequest struct {
	RoomID             uuid.UUID
	ParticipantID      uuid.UUID
	PlayerID           uuid.UUID
	ExpectedPickNumber int // rejects commits built from a stale view; 0 skips
	IsAutopick         bool
	Source             models.PickSource
}

// CommitResult reports a successful transition.
type CommitResult struct {
	Pick          *models.Pick
	DraftComplete bool
}

// Committer is the only component permitted to mutate persistent draft
// state. It re-validates inside a serializable transaction so that among any
// number of racing submissions for the same turn exactly one wins.
type Committer struct {
	store   RoomStore
	catalog Catalog
	limits  models.PositionLimits
	grace   time.Duration
	clock   clockwork.Clock
	sideFx  SideEffects
}

// NewCommitter wires the committer with its collaborators.
func NewCommitter(store RoomStore, catalog Catalog, limits models.PositionLimits, grace time.Duration, clock clockwork.Clock, sideFx SideEffects) *Committer {
	return &Committer{
		store:   store,
		catalog: catalog,
		limits:  limits,
		grace:   grace,
		clock:   clock,
		sideFx:  sideFx,
	}
}

// Commit performs the authoritative transition for one pick. Domain
// rejections come back as *DraftError; anything else is wrapped as an
// infrastructure error and is safe to retry as a whole.
func (c *Committer) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	// Player reference data is immutable, so it can be fetched once outside
	// the transaction. Availability is still checked against the pick list
	// inside it.
	player, err := c.catalog.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		return nil, WrapInfra(err)
	}

	var result *CommitResult
	err = c.store.WithinRoomTxn(ctx, req.RoomID, func(ctx context.Context, txn RoomTxn) error {
		room, err := txn.Room(ctx)
		if err != nil {
			return err
		}
		if req.ExpectedPickNumber != 0 && room.CurrentPickNumber != req.ExpectedPickNumber {
			return NewError(CodeNotYourTurn, "turn has advanced to pick %d", room.CurrentPickNumber)
		}
		picks, err := txn.Picks(ctx)
		if err != nil {
			return err
		}

		snap := Snapshot{Room: room, Picks: picks, Player: player, Now: c.clock.Now()}
		plan, err := ValidatePick(snap, req.ParticipantID, c.limits, ValidateOptions{
			BypassTimer: req.IsAutopick,
			GracePeriod: c.grace,
		})
		if err != nil {
			return err
		}

		now := c.clock.Now()
		snapshot := roster.CountPositions(picks, plan.ParticipantIdx)
		snapshot[player.Position]++

		pick := models.Pick{
			ID:             uuid.New(),
			RoomID:         room.ID,
			PickNumber:     plan.PickNumber,
			Round:          plan.Round,
			PickInRound:    plan.PickInRound,
			ParticipantID:  plan.Participant.ID,
			ParticipantIdx: plan.ParticipantIdx,
			PlayerID:       player.ID,
			PlayerPosition: player.Position,
			Source:         req.Source,
			IsAutopick:     req.IsAutopick,
			RosterSnapshot: snapshot,
			PickedAt:       now,
		}
		if err := txn.InsertPick(ctx, pick); err != nil {
			return err
		}

		room.CurrentPickNumber++
		room.TimerStartedAt = &now
		complete := room.CurrentPickNumber > room.TotalPicks()
		if complete {
			room.Status = models.RoomStatusComplete
			room.CompletedAt = &now
			room.TimerStartedAt = nil
		}
		if err := txn.UpdateRoom(ctx, room); err != nil {
			return err
		}

		if err := c.insertPickMadeEvent(ctx, txn, room, pick); err != nil {
			return err
		}
		if complete {
			if err := c.insertDraftCompletedEvent(ctx, txn, room, now); err != nil {
				return err
			}
		}

		result = &CommitResult{Pick: &pick, DraftComplete: complete}
		return nil
	})
	if err != nil {
		var de *DraftError
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, WrapInfra(err)
	}

	c.triggerSideEffects(req.RoomID, result)

	log.Info().
		Str("room_id", req.RoomID.String()).
		Int("pick_number", result.Pick.PickNumber).
		Str("player_id", result.Pick.PlayerID.String()).
		Bool("autopick", result.Pick.IsAutopick).
		Bool("complete", result.DraftComplete).
		Msg("pick committed")

	return result, nil
}

// triggerSideEffects runs after the transaction has committed. The sinks are
// fire-and-forget: a failure there can no longer affect the committed pick.
func (c *Committer) triggerSideEffects(roomID uuid.UUID, result *CommitResult) {
	if c.sideFx == nil {
		return
	}
	// Re-read with relaxed consistency just for the sinks' benefit.
	room, err := c.store.GetRoom(context.Background(), roomID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", roomID.String()).Msg("side effects skipped: room re-read failed")
		return
	}
	c.sideFx.PickCommitted(room, *result.Pick)
	if result.DraftComplete && room.CompletedAt != nil {
		c.sideFx.DraftCompleted(room, *room.CompletedAt)
	}
}

func (c *Committer) insertPickMadeEvent(ctx context.Context, txn RoomTxn, room *models.DraftRoom, pick models.Pick) error {
	payload, err := json.Marshal(events.PickMadePayload{
		PickID:         pick.ID.String(),
		RoomID:         room.ID.String(),
		ParticipantID:  pick.ParticipantID.String(),
		PlayerID:       pick.PlayerID.String(),
		PlayerPosition: pick.PlayerPosition,
		Round:          pick.Round,
		PickInRound:    pick.PickInRound,
		PickNumber:     pick.PickNumber,
		Source:         string(pick.Source),
		IsAutopick:     pick.IsAutopick,
		MadeAt:         pick.PickedAt,
	})
	if err != nil {
		return err
	}
	return txn.InsertEvent(ctx, events.TypePickMade, payload)
}

func (c *Committer) insertDraftCompletedEvent(ctx context.Context, txn RoomTxn, room *models.DraftRoom, completedAt time.Time) error {
	payload, err := json.Marshal(events.DraftCompletedPayload{
		RoomID:      room.ID.String(),
		CompletedAt: completedAt,
		TotalPicks:  room.TotalPicks(),
	})
	if err != nil {
		return err
	}
	return txn.InsertEvent(ctx, events.TypeDraftCompleted, payload)
}
