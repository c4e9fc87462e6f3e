package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/models"
)

// Memstore is an in-memory room store with the same contract as the Postgres
// repository: WithinRoomTxn is serializable with respect to other
// transactions on the same room, and a transaction's writes become visible
// together or not at all. It backs local development and the engine's
// concurrency tests.
type Memstore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*memRoom
}

type memRoom struct {
	room   models.DraftRoom
	picks  []models.Pick
	events []StoredEvent
}

// StoredEvent is an outbox row captured by the in-memory store.
type StoredEvent struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// NewMemstore creates an empty in-memory store.
func NewMemstore() *Memstore {
	return &Memstore{rooms: make(map[uuid.UUID]*memRoom)}
}

var _ engine.RoomStore = (*Memstore)(nil)

// PutRoom seeds or replaces a room.
func (m *Memstore) PutRoom(room models.DraftRoom) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = &memRoom{room: cloneRoom(room)}
}

// Events returns the outbox rows recorded for a room, in insertion order.
func (m *Memstore) Events(roomID uuid.UUID) []StoredEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		out := make([]StoredEvent, len(r.events))
		copy(out, r.events)
		return out
	}
	return nil
}

// GetRoom reads the latest committed room state.
func (m *Memstore) GetRoom(ctx context.Context, roomID uuid.UUID) (*models.DraftRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, engine.NewError(engine.CodeRoomNotFound, "draft room %s not found", roomID)
	}
	room := cloneRoom(r.room)
	return &room, nil
}

// ListPicks reads the latest committed picks for a room.
func (m *Memstore) ListPicks(ctx context.Context, roomID uuid.UUID) ([]models.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, engine.NewError(engine.CodeRoomNotFound, "draft room %s not found", roomID)
	}
	return clonePicks(r.picks), nil
}

// WithinRoomTxn serializes transactions with a store-wide lock. fn operates
// on staged copies; state is applied only when fn returns nil.
func (m *Memstore) WithinRoomTxn(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context, txn engine.RoomTxn) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return engine.NewError(engine.CodeRoomNotFound, "draft room %s not found", roomID)
	}

	txn := &memTxn{
		roomID: roomID,
		room:   cloneRoom(r.room),
		picks:  clonePicks(r.picks),
	}
	if err := fn(ctx, txn); err != nil {
		return err
	}

	// Commit: staged state replaces the room atomically under the lock.
	if txn.roomDirty {
		r.room = txn.room
	}
	r.picks = append(r.picks, txn.newPicks...)
	r.events = append(r.events, txn.newEvents...)
	return nil
}

type memTxn struct {
	roomID    uuid.UUID
	room      models.DraftRoom
	roomDirty bool
	picks     []models.Pick
	newPicks  []models.Pick
	newEvents []StoredEvent
}

func (t *memTxn) Room(ctx context.Context) (*models.DraftRoom, error) {
	room := cloneRoom(t.room)
	return &room, nil
}

func (t *memTxn) Picks(ctx context.Context) ([]models.Pick, error) {
	all := clonePicks(t.picks)
	return append(all, clonePicks(t.newPicks)...), nil
}

func (t *memTxn) InsertPick(ctx context.Context, pick models.Pick) error {
	t.newPicks = append(t.newPicks, pick)
	return nil
}

func (t *memTxn) UpdateRoom(ctx context.Context, room *models.DraftRoom) error {
	t.room = cloneRoom(*room)
	t.roomDirty = true
	return nil
}

func (t *memTxn) InsertEvent(ctx context.Context, eventType string, payload []byte) error {
	t.newEvents = append(t.newEvents, StoredEvent{
		ID:        uuid.New(),
		RoomID:    t.roomID,
		EventType: eventType,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: time.Now(),
	})
	return nil
}

func cloneRoom(room models.DraftRoom) models.DraftRoom {
	out := room
	out.Participants = append([]models.Participant(nil), room.Participants...)
	if room.TimerStartedAt != nil {
		t := *room.TimerStartedAt
		out.TimerStartedAt = &t
	}
	if room.CompletedAt != nil {
		t := *room.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

func clonePicks(picks []models.Pick) []models.Pick {
	out := make([]models.Pick, len(picks))
	copy(out, picks)
	for i := range out {
		if out[i].RosterSnapshot != nil {
			snap := make(map[string]int, len(out[i].RosterSnapshot))
			for k, v := range out[i].RosterSnapshot {
				snap[k] = v
			}
			out[i].RosterSnapshot = snap
		}
	}
	return out
}
