package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/models"
)

// PickQueue is what the handler needs from the queue store.
type PickQueue interface {
	AddEntry(ctx context.Context, roomID, participantID, playerID uuid.UUID, rank int) error
	RemoveEntry(ctx context.Context, roomID, participantID, playerID uuid.UUID) error
}

// RoomCreator persists new pre-draft rooms.
type RoomCreator interface {
	CreateRoom(ctx context.Context, room *models.DraftRoom) error
}

// Handler exposes the room API over HTTP: the WebSocket event feed, the
// participant view poll endpoint, and pick/lifecycle/queue operations.
type Handler struct {
	app     *engine.App
	manager *Manager
	queue   PickQueue
	rooms   RoomCreator
}

// NewHandler creates an HTTP handler around the engine facade. queue may be
// nil when pick queues are not enabled.
func NewHandler(app *engine.App, manager *Manager, queue PickQueue, rooms RoomCreator) *Handler {
	return &Handler{app: app, manager: manager, queue: queue, rooms: rooms}
}

// RegisterRoutes registers the gateway routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/rooms", h.handleRoomSocket)
	mux.HandleFunc("POST /api/rooms", h.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/view", h.handleParticipantView)
	mux.HandleFunc("POST /api/rooms/pick", h.handleSubmitPick)
	mux.HandleFunc("POST /api/rooms/queue", h.handleQueueAdd)
	mux.HandleFunc("DELETE /api/rooms/queue", h.handleQueueRemove)
	mux.HandleFunc("POST /api/rooms/start", h.handleLifecycle(h.startRoom))
	mux.HandleFunc("POST /api/rooms/pause", h.handleLifecycle(h.pauseRoom))
	mux.HandleFunc("POST /api/rooms/resume", h.handleLifecycle(h.resumeRoom))
}

func (h *Handler) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.URL.Query().Get("room_id"))
	if err != nil {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}
	if err := h.manager.Upgrade(w, r, roomID); err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("websocket upgrade failed")
	}
}

func (h *Handler) handleParticipantView(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.URL.Query().Get("room_id"))
	if err != nil {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}
	participantID, err := uuid.Parse(r.URL.Query().Get("participant_id"))
	if err != nil {
		http.Error(w, "participant_id is required", http.StatusBadRequest)
		return
	}

	view, err := h.app.GetParticipantView(r.Context(), roomID, participantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

type createRoomRequest struct {
	RosterSize  int         `json:"roster_size"`
	PickTimeSec int         `json:"pick_time_sec"`
	UserIDs     []uuid.UUID `json:"user_ids"` // round-one draft order
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.UserIDs) < 2 || req.RosterSize < 1 || req.PickTimeSec < 1 {
		http.Error(w, "user_ids (2+), roster_size and pick_time_sec are required", http.StatusBadRequest)
		return
	}

	participants := make([]models.Participant, len(req.UserIDs))
	for i, userID := range req.UserIDs {
		participants[i] = models.Participant{
			ID:            uuid.New(),
			UserID:        userID,
			DraftPosition: i + 1,
		}
	}
	room := &models.DraftRoom{
		ID:                uuid.New(),
		Status:            models.RoomStatusPreDraft,
		CurrentPickNumber: 1,
		TeamCount:         len(req.UserIDs),
		RosterSize:        req.RosterSize,
		PickTimeSec:       req.PickTimeSec,
		Participants:      participants,
		CreatedAt:         time.Now().UTC(),
	}

	if err := h.rooms.CreateRoom(r.Context(), room); err != nil {
		h.writeError(w, err)
		return
	}
	log.Info().Str("room_id", room.ID.String()).Int("team_count", room.TeamCount).Msg("draft room created")
	h.writeJSON(w, http.StatusCreated, room)
}

type submitPickRequest struct {
	RoomID             uuid.UUID `json:"room_id"`
	ParticipantID      uuid.UUID `json:"participant_id"`
	PlayerID           uuid.UUID `json:"player_id"`
	ExpectedPickNumber int       `json:"expected_pick_number"`
}

func (h *Handler) handleSubmitPick(w http.ResponseWriter, r *http.Request) {
	actorUserID, ok := h.actorFromRequest(w, r)
	if !ok {
		return
	}

	var req submitPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.app.CommitPick(r.Context(), actorUserID, engine.CommitRequest{
		RoomID:             req.RoomID,
		ParticipantID:      req.ParticipantID,
		PlayerID:           req.PlayerID,
		ExpectedPickNumber: req.ExpectedPickNumber,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type queueRequest struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	PlayerID      uuid.UUID `json:"player_id"`
	Rank          int       `json:"rank,omitempty"`
}

func (h *Handler) handleQueueAdd(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQueueRequest(w, r)
	if !ok {
		return
	}
	if err := h.queue.AddEntry(r.Context(), req.RoomID, req.ParticipantID, req.PlayerID, req.Rank); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQueueRequest(w, r)
	if !ok {
		return
	}
	if err := h.queue.RemoveEntry(r.Context(), req.RoomID, req.ParticipantID, req.PlayerID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeQueueRequest(w http.ResponseWriter, r *http.Request) (queueRequest, bool) {
	if h.queue == nil {
		http.Error(w, "pick queues are not enabled", http.StatusNotImplemented)
		return queueRequest{}, false
	}
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return queueRequest{}, false
	}
	if req.RoomID == uuid.Nil || req.ParticipantID == uuid.Nil || req.PlayerID == uuid.Nil {
		http.Error(w, "room_id, participant_id and player_id are required", http.StatusBadRequest)
		return queueRequest{}, false
	}
	return req, true
}

type lifecycleRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	Reason string    `json:"reason,omitempty"`
}

func (h *Handler) handleLifecycle(op func(r *http.Request, req lifecycleRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lifecycleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := op(r, req); err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *Handler) startRoom(r *http.Request, req lifecycleRequest) error {
	return h.app.StartDraft(r.Context(), req.RoomID)
}

func (h *Handler) pauseRoom(r *http.Request, req lifecycleRequest) error {
	return h.app.PauseDraft(r.Context(), req.RoomID, req.Reason)
}

func (h *Handler) resumeRoom(r *http.Request, req lifecycleRequest) error {
	return h.app.ResumeDraft(r.Context(), req.RoomID)
}

// actorFromRequest resolves the caller's user id. In production this would
// come from a verified session token; the header stands in for it here.
func (h *Handler) actorFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		http.Error(w, "X-User-ID header is required", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid X-User-ID header", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var derr *engine.DraftError
	if !errors.As(err, &derr) {
		log.Error().Err(err).Msg("unhandled gateway error")
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    string(engine.CodeInfrastructure),
			Message: "internal error",
		})
		return
	}
	h.writeJSON(w, statusForCode(derr.Code), errorResponse{
		Code:    string(derr.Code),
		Message: derr.Message,
	})
}

func statusForCode(code engine.Code) int {
	switch code {
	case engine.CodeRoomNotFound, engine.CodeEntityNotFound:
		return http.StatusNotFound
	case engine.CodeNotYourTurn, engine.CodeTimerExpired:
		return http.StatusForbidden
	case engine.CodeEntityUnavailable, engine.CodePositionLimitReached,
		engine.CodeDraftNotActive, engine.CodeDraftComplete, engine.CodeInvalidState:
		return http.StatusConflict
	case engine.CodeInfrastructure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
