package autopick

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/draft/store"
	"github.com/draftkit/draftroom/go/internal/models"
)

// fakeEngine records commit requests and returns a scripted error.
type fakeEngine struct {
	mu       sync.Mutex
	requests []engine.CommitRequest
	actors   []uuid.UUID
	err      error
}

func (f *fakeEngine) CommitPick(ctx context.Context, actorUserID uuid.UUID, req engine.CommitRequest) (*engine.CommitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.actors = append(f.actors, actorUserID)
	if f.err != nil {
		return nil, f.err
	}
	return &engine.CommitResult{Pick: &models.Pick{PickNumber: 1}}, nil
}

// fakeDeadlines serves room state from a memstore with scripted deadlines.
type fakeDeadlines struct {
	*store.Memstore
	deadline *store.RoomDeadline
	due      []uuid.UUID
}

func (f *fakeDeadlines) NextDeadline(ctx context.Context, grace time.Duration) (*store.RoomDeadline, error) {
	return f.deadline, nil
}

func (f *fakeDeadlines) RoomsDueForPick(ctx context.Context, asOf time.Time, grace time.Duration, limit int32) ([]uuid.UUID, error) {
	return f.due, nil
}

func expiredRoom(t *testing.T) (*fakeDeadlines, models.DraftRoom) {
	t.Helper()
	participants := make([]models.Participant, 3)
	for i := range participants {
		participants[i] = models.Participant{ID: uuid.New(), UserID: uuid.New(), DraftPosition: i + 1}
	}
	started := time.Now().Add(-2 * time.Minute)
	room := models.DraftRoom{
		ID:                uuid.New(),
		Status:            models.RoomStatusActive,
		CurrentPickNumber: 5, // round 2 of 3 teams, snakes to seat 2
		TeamCount:         3,
		RosterSize:        5,
		PickTimeSec:       30,
		TimerStartedAt:    &started,
		Participants:      participants,
	}
	ms := store.NewMemstore()
	ms.PutRoom(room)
	return &fakeDeadlines{Memstore: ms}, room
}

// scriptedStrategy returns a fixed player.
type scriptedStrategy struct {
	player models.Player
}

func (s *scriptedStrategy) SelectPlayer(ctx context.Context, room *models.DraftRoom, participant models.Participant, picks []models.Pick) (*models.Player, models.PickSource, error) {
	return &s.player, models.PickSourceADPDefault, nil
}

func TestHandleTimeoutCommitsAutopickForOccupant(t *testing.T) {
	deadlines, room := expiredRoom(t)
	eng := &fakeEngine{}
	strat := &scriptedStrategy{player: models.Player{ID: uuid.New(), Position: "RB", ADPRank: 1}}
	s := NewScheduler(eng, deadlines, strat, 0, 10, 2, clockwork.NewFakeClock())

	require.NoError(t, s.handleTimeout(context.Background(), room.ID))

	eng.mu.Lock()
	defer eng.mu.Unlock()
	require.Len(t, eng.requests, 1)
	req := eng.requests[0]

	// Pick 5 in a 3-team snake belongs to the seat-2 participant.
	occupant, ok := room.ParticipantAtPosition(2)
	require.True(t, ok)
	assert.Equal(t, occupant.ID, req.ParticipantID)
	assert.Equal(t, strat.player.ID, req.PlayerID)
	assert.True(t, req.IsAutopick)
	assert.Equal(t, models.PickSourceADPDefault, req.Source)
	assert.Equal(t, engine.SystemActor, eng.actors[0])
}

func TestHandleTimeoutSkipsInactiveRoom(t *testing.T) {
	deadlines, room := expiredRoom(t)
	got, err := deadlines.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	got.Status = models.RoomStatusPaused
	deadlines.PutRoom(*got)

	eng := &fakeEngine{}
	s := NewScheduler(eng, deadlines, &scriptedStrategy{}, 0, 10, 2, clockwork.NewFakeClock())

	require.NoError(t, s.handleTimeout(context.Background(), room.ID))
	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Empty(t, eng.requests)
}

func TestHandleTimeoutRaceLossIsNotAnError(t *testing.T) {
	for _, code := range []engine.Code{engine.CodeNotYourTurn, engine.CodeDraftComplete, engine.CodeEntityUnavailable} {
		deadlines, room := expiredRoom(t)
		eng := &fakeEngine{err: engine.NewError(code, "lost the race")}
		strat := &scriptedStrategy{player: models.Player{ID: uuid.New(), Position: "RB"}}
		s := NewScheduler(eng, deadlines, strat, 0, 10, 2, clockwork.NewFakeClock())

		assert.NoError(t, s.handleTimeout(context.Background(), room.ID), string(code))
	}
}

func TestHandleTimeoutInfrastructureErrorSurfaces(t *testing.T) {
	deadlines, room := expiredRoom(t)
	eng := &fakeEngine{err: engine.WrapInfra(context.DeadlineExceeded)}
	strat := &scriptedStrategy{player: models.Player{ID: uuid.New(), Position: "RB"}}
	s := NewScheduler(eng, deadlines, strat, 0, 10, 2, clockwork.NewFakeClock())

	assert.Error(t, s.handleTimeout(context.Background(), room.ID))
}
