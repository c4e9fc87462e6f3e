package autopick

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/draft/store"
	"github.com/draftkit/draftroom/go/internal/draft/turnorder"
	"github.com/draftkit/draftroom/go/internal/models"
)

// Engine is what the scheduler needs from the draft engine.
type Engine interface {
	CommitPick(ctx context.Context, actorUserID uuid.UUID, req engine.CommitRequest) (*engine.CommitResult, error)
}

// DeadlineStore supplies deadlines and room state for expiry handling.
type DeadlineStore interface {
	NextDeadline(ctx context.Context, grace time.Duration) (*store.RoomDeadline, error)
	RoomsDueForPick(ctx context.Context, asOf time.Time, grace time.Duration, limit int32) ([]uuid.UUID, error)
	GetRoom(ctx context.Context, roomID uuid.UUID) (*models.DraftRoom, error)
	ListPicks(ctx context.Context, roomID uuid.UUID) ([]models.Pick, error)
}

// Scheduler sleeps until the next pick deadline across all active rooms and
// fires autopicks through the engine. Turn expiry is a domain timeout, not
// request cancellation: the expired turn is filled, not aborted.
type Scheduler struct {
	engine     Engine
	store      DeadlineStore
	strat      Strategy
	grace      time.Duration
	batchSize  int32
	clock      clockwork.Clock
	wakeCh     chan struct{}
	instanceID string

	numWorkers int
	workCh     chan uuid.UUID

	// Track in-flight rooms to prevent duplicate processing.
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex
}

// NewScheduler creates a turn-expiry scheduler with a worker pool.
func NewScheduler(eng Engine, deadlines DeadlineStore, strat Strategy, grace time.Duration, batchSize int32, numWorkers int, clock clockwork.Clock) *Scheduler {
	if numWorkers <= 0 {
		numWorkers = 10
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		engine:     eng,
		store:      deadlines,
		strat:      strat,
		grace:      grace,
		batchSize:  batchSize,
		clock:      clock,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8],
		numWorkers: numWorkers,
		workCh:     make(chan uuid.UUID, numWorkers*2),
		inFlight:   make(map[uuid.UUID]bool),
	}
}

// Wake nudges the scheduler to re-read deadlines, e.g. after a pick commit
// produced a sooner one.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run loops forever, sleeping until the next deadline and firing timeouts.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Str("instance", s.instanceID).Int("workers", s.numWorkers).Msg("expiry scheduler started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go s.worker(workerCtx, &wg, i)
	}
	defer func() {
		cancelWorkers()
		wg.Wait()
		log.Info().Str("instance", s.instanceID).Msg("all expiry workers shut down")
	}()

	timer := s.clock.NewTimer(0)
	defer timer.Stop()

	const idlePollDuration = 5 * time.Second

	for {
		select {
		case <-s.wakeCh:
		default:
		}

		deadline, err := s.store.NextDeadline(ctx, s.grace)
		if err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("error fetching next deadline")
			timer.Reset(time.Second)
			select {
			case <-timer.Chan():
				continue
			case <-ctx.Done():
				return nil
			}
		}

		if deadline == nil {
			// No active room has a running timer.
			timer.Reset(idlePollDuration)
			select {
			case <-timer.Chan():
				continue
			case <-ctx.Done():
				log.Info().Str("instance", s.instanceID).Msg("shutdown during idle")
				return nil
			case <-s.wakeCh:
				continue
			}
		}

		if wait := deadline.Deadline.Sub(s.clock.Now()); wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.Chan():
			case <-ctx.Done():
				log.Info().Str("instance", s.instanceID).Msg("shutdown during wait")
				return nil
			case <-s.wakeCh:
				continue
			}
		}

		due, err := s.store.RoomsDueForPick(ctx, s.clock.Now(), s.grace, s.batchSize)
		if err != nil {
			log.Error().Err(err).Str("instance", s.instanceID).Msg("error fetching due rooms")
			timer.Reset(time.Second)
			select {
			case <-timer.Chan():
				continue
			case <-ctx.Done():
				return nil
			}
		}

		for _, roomID := range due {
			s.inFlightMu.Lock()
			if s.inFlight[roomID] {
				s.inFlightMu.Unlock()
				continue
			}
			s.inFlight[roomID] = true
			s.inFlightMu.Unlock()

			select {
			case <-ctx.Done():
				s.inFlightMu.Lock()
				delete(s.inFlight, roomID)
				s.inFlightMu.Unlock()
				log.Info().Str("instance", s.instanceID).Msg("shutdown while queueing timeouts")
				return nil
			case s.workCh <- roomID:
			}
		}
	}
}

func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case roomID := <-s.workCh:
			if err := s.handleTimeout(ctx, roomID); err != nil {
				log.Error().Err(err).
					Str("room_id", roomID.String()).
					Str("instance", s.instanceID).
					Int("worker_id", workerID).
					Msg("timeout handling failed")
			}
			s.inFlightMu.Lock()
			delete(s.inFlight, roomID)
			s.inFlightMu.Unlock()
		}
	}
}

// handleTimeout commits an autopick for the room's expired turn. Losing a
// race against the participant's own last-second pick is expected and is not
// an error.
func (s *Scheduler) handleTimeout(ctx context.Context, roomID uuid.UUID) error {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Status != models.RoomStatusActive {
		return nil
	}
	picks, err := s.store.ListPicks(ctx, roomID)
	if err != nil {
		return err
	}

	idx := turnorder.ParticipantIndexForPick(room.CurrentPickNumber, room.TeamCount)
	participant, ok := room.ParticipantAtPosition(idx + 1)
	if !ok {
		log.Error().
			Str("room_id", roomID.String()).
			Int("pick_number", room.CurrentPickNumber).
			Msg("no participant resolves for expired turn; skipping")
		return nil
	}

	player, source, err := s.strat.SelectPlayer(ctx, room, participant, picks)
	if err != nil {
		return err
	}

	_, err = s.engine.CommitPick(ctx, engine.SystemActor, engine.CommitRequest{
		RoomID:        roomID,
		ParticipantID: participant.ID,
		PlayerID:      player.ID,
		IsAutopick:    true,
		Source:        source,
	})
	if err != nil {
		switch engine.CodeOf(err) {
		case engine.CodeNotYourTurn, engine.CodeDraftComplete, engine.CodeEntityUnavailable:
			// Someone committed the turn between expiry detection and now.
			log.Debug().
				Str("room_id", roomID.String()).
				Str("code", string(engine.CodeOf(err))).
				Msg("autopick lost the race; turn already filled")
			return nil
		}
		return err
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("participant_id", participant.ID.String()).
		Str("player_id", player.ID.String()).
		Str("source", string(source)).
		Msg("autopick committed for expired turn")
	return nil
}
