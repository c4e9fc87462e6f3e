package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftroom/go/internal/catalog"
	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/draft/store"
	"github.com/draftkit/draftroom/go/internal/gateway"
	"github.com/draftkit/draftroom/go/internal/models"
)

// memCreator adapts the in-memory store to the handler's creation interface.
type memCreator struct {
	ms *store.Memstore
}

func (c *memCreator) CreateRoom(ctx context.Context, room *models.DraftRoom) error {
	c.ms.PutRoom(*room)
	return nil
}

func handlerFixture(t *testing.T) (*http.ServeMux, *store.Memstore, models.DraftRoom, []models.Player) {
	t.Helper()

	participants := make([]models.Participant, 2)
	for i := range participants {
		participants[i] = models.Participant{ID: uuid.New(), UserID: uuid.New(), DraftPosition: i + 1}
	}
	clock := clockwork.NewFakeClock()
	now := clock.Now()
	room := models.DraftRoom{
		ID:                uuid.New(),
		Status:            models.RoomStatusActive,
		CurrentPickNumber: 1,
		TeamCount:         2,
		RosterSize:        2,
		PickTimeSec:       30,
		TimerStartedAt:    &now,
		Participants:      participants,
		CreatedAt:         now,
	}
	players := []models.Player{
		{ID: uuid.New(), FullName: "RB One", Position: "RB", ADPRank: 1},
		{ID: uuid.New(), FullName: "WR Two", Position: "WR", ADPRank: 2},
	}

	ms := store.NewMemstore()
	ms.PutRoom(room)
	projector := engine.NewProjector(ms, clock, roster.DefaultRequirements(), roster.DefaultUrgencyPolicy())
	app := engine.NewApp(ms, catalog.NewStatic(players), projector, nil, engine.Config{}, clock)

	handler := gateway.NewHandler(app, gateway.NewManager(gateway.DefaultConnectionConfig()), nil, &memCreator{ms: ms})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux, ms, room, players
}

func TestHandleParticipantView(t *testing.T) {
	mux, _, room, _ := handlerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/rooms/view?room_id="+room.ID.String()+"&participant_id="+room.Participants[0].ID.String(), nil)
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view engine.ParticipantTurnView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, engine.ViewStatusYourTurn, view.Status)
	assert.Equal(t, 0, view.PicksAway)
}

func TestHandleParticipantViewUnknownRoomIs404(t *testing.T) {
	mux, _, _, _ := handlerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/rooms/view?room_id="+uuid.NewString()+"&participant_id="+uuid.NewString(), nil)
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ROOM_NOT_FOUND", body.Code)
}

func TestHandleSubmitPick(t *testing.T) {
	mux, ms, room, players := handlerFixture(t)

	payload, _ := json.Marshal(map[string]any{
		"room_id":        room.ID,
		"participant_id": room.Participants[0].ID,
		"player_id":      players[0].ID,
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/pick", bytes.NewReader(payload))
	req.Header.Set("X-User-ID", room.Participants[0].UserID.String())
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, err := ms.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentPickNumber)
}

func TestHandleSubmitPickStaleTurnIsForbidden(t *testing.T) {
	mux, _, room, players := handlerFixture(t)

	submit := func(seat int, playerID uuid.UUID, expected int) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(map[string]any{
			"room_id":              room.ID,
			"participant_id":       room.Participants[seat].ID,
			"player_id":            playerID,
			"expected_pick_number": expected,
		})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/pick", bytes.NewReader(payload))
		req.Header.Set("X-User-ID", room.Participants[seat].UserID.String())
		mux.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, submit(0, players[0].ID, 1).Code)

	// Seat 2 acts on the view from before the turn advanced.
	rec := submit(1, players[1].ID, 1)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_YOUR_TURN", body.Code)

	require.Equal(t, http.StatusOK, submit(1, players[1].ID, 2).Code)
}

func TestHandleSubmitPickRequiresIdentity(t *testing.T) {
	mux, _, room, players := handlerFixture(t)

	payload, _ := json.Marshal(map[string]any{
		"room_id":        room.ID,
		"participant_id": room.Participants[0].ID,
		"player_id":      players[0].ID,
	})

	// No header at all.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/pick", bytes.NewReader(payload))
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Another user's identity: forbidden, and the turn does not advance.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/rooms/pick", bytes.NewReader(payload))
	req.Header.Set("X-User-ID", room.Participants[1].UserID.String())
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleCreateRoom(t *testing.T) {
	mux, ms, _, _ := handlerFixture(t)

	payload, _ := json.Marshal(map[string]any{
		"roster_size":   2,
		"pick_time_sec": 30,
		"user_ids":      []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(payload))
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.DraftRoom
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.RoomStatusPreDraft, created.Status)
	assert.Equal(t, 3, created.TeamCount)
	assert.Len(t, created.Participants, 3)

	got, err := ms.GetRoom(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentPickNumber)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestHandleCreateRoomValidation(t *testing.T) {
	mux, _, _, _ := handlerFixture(t)

	payload, _ := json.Marshal(map[string]any{
		"roster_size":   2,
		"pick_time_sec": 30,
		"user_ids":      []uuid.UUID{uuid.New()}, // one seat is not a draft
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(payload))
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleQueueDisabled(t *testing.T) {
	mux, _, room, players := handlerFixture(t)

	payload, _ := json.Marshal(map[string]any{
		"room_id":        room.ID,
		"participant_id": room.Participants[0].ID,
		"player_id":      players[0].ID,
		"rank":           1,
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/queue", bytes.NewReader(payload))
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
