package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/draft/store"
	"github.com/draftkit/draftroom/go/internal/models"
)

func viewFixture(t *testing.T) (*engine.Projector, *store.Memstore, *clockwork.FakeClock, models.DraftRoom) {
	t.Helper()

	participants := make([]models.Participant, 4)
	for i := range participants {
		participants[i] = models.Participant{
			ID:            uuid.New(),
			UserID:        uuid.New(),
			DraftPosition: i + 1,
		}
	}
	clock := clockwork.NewFakeClock()
	started := clock.Now()
	room := models.DraftRoom{
		ID:                uuid.New(),
		Status:            models.RoomStatusActive,
		CurrentPickNumber: 1,
		TeamCount:         4,
		RosterSize:        15,
		PickTimeSec:       30,
		TimerStartedAt:    &started,
		Participants:      participants,
		CreatedAt:         started,
	}

	ms := store.NewMemstore()
	ms.PutRoom(room)
	projector := engine.NewProjector(ms, clock, roster.DefaultRequirements(), roster.DefaultUrgencyPolicy())
	return projector, ms, clock, room
}

func TestParticipantViewYourTurnCountdown(t *testing.T) {
	projector, _, clock, room := viewFixture(t)

	clock.Advance(12 * time.Second)
	view, err := projector.ParticipantView(context.Background(), room.ID, room.Participants[0].ID)
	require.NoError(t, err)

	assert.Equal(t, engine.ViewStatusYourTurn, view.Status)
	assert.Equal(t, 0, view.PicksAway)
	require.NotNil(t, view.TimeLeftSec)
	assert.Equal(t, 18, *view.TimeLeftSec)
}

func TestParticipantViewTimeLeftClampsAtZero(t *testing.T) {
	projector, _, clock, room := viewFixture(t)

	clock.Advance(45 * time.Second)
	view, err := projector.ParticipantView(context.Background(), room.ID, room.Participants[0].ID)
	require.NoError(t, err)
	require.NotNil(t, view.TimeLeftSec)
	assert.Equal(t, 0, *view.TimeLeftSec)
}

func TestParticipantViewWaitingHasNoCountdown(t *testing.T) {
	projector, _, _, room := viewFixture(t)

	view, err := projector.ParticipantView(context.Background(), room.ID, room.Participants[2].ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ViewStatusWaiting, view.Status)
	assert.Equal(t, 2, view.PicksAway)
	assert.Nil(t, view.TimeLeftSec)
}

func TestParticipantViewPaused(t *testing.T) {
	projector, ms, _, room := viewFixture(t)

	room.Status = models.RoomStatusPaused
	room.TimerStartedAt = nil
	ms.PutRoom(room)

	view, err := projector.ParticipantView(context.Background(), room.ID, room.Participants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ViewStatusPaused, view.Status)
	assert.Nil(t, view.TimeLeftSec)
}

func TestParticipantViewComplete(t *testing.T) {
	projector, ms, _, room := viewFixture(t)

	room.Status = models.RoomStatusComplete
	room.CurrentPickNumber = room.TotalPicks() + 1
	room.TimerStartedAt = nil
	ms.PutRoom(room)

	view, err := projector.ParticipantView(context.Background(), room.ID, room.Participants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, engine.ViewStatusComplete, view.Status)
	assert.Nil(t, view.TimeLeftSec)
}

func TestParticipantViewNeedsEscalateByRound(t *testing.T) {
	projector, ms, _, room := viewFixture(t)

	// Round 12 with an empty QB slot is critical under the default policy.
	room.CurrentPickNumber = (12-1)*room.TeamCount + 1
	ms.PutRoom(room)

	view, err := projector.ParticipantView(context.Background(), room.ID, room.Participants[1].ID)
	require.NoError(t, err)
	require.NotEmpty(t, view.PositionNeeds)
	for _, need := range view.PositionNeeds {
		if need.Needed > 0 {
			assert.Equal(t, roster.UrgencyCritical, need.Urgency, need.Position)
		}
	}
}

func TestParticipantViewUnknownParticipant(t *testing.T) {
	projector, _, _, room := viewFixture(t)
	_, err := projector.ParticipantView(context.Background(), room.ID, uuid.New())
	require.Error(t, err)
}
