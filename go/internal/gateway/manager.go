// Package gateway fans committed room events out to connected clients and
// serves the polling view endpoint. It is a pure consumer of the engine:
// nothing here writes draft state.
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionConfig holds WebSocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns development defaults.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// Connection is one client subscribed to a room.
type Connection struct {
	RoomID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

// Manager tracks connections per room and broadcasts event frames to them.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[uuid.UUID]map[*Connection]bool
	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// NewManager creates a connection manager.
func NewManager(config ConnectionConfig) *Manager {
	return &Manager{
		rooms: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// Upgrade turns an HTTP request into a room-subscribed WebSocket connection
// and runs its pumps until the client goes away.
func (m *Manager) Upgrade(w http.ResponseWriter, r *http.Request, roomID uuid.UUID) error {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Connection{RoomID: roomID, conn: ws, send: make(chan []byte, 64)}

	m.mu.Lock()
	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[*Connection]bool)
	}
	m.rooms[roomID][c] = true
	m.mu.Unlock()

	log.Debug().Str("room_id", roomID.String()).Msg("websocket client connected")

	go c.writePump(m.config)
	go c.readPump(func() { m.remove(c) })
	return nil
}

// Broadcast sends a frame to every connection subscribed to the room. Slow
// clients are dropped rather than allowed to block the fan-out.
func (m *Manager) Broadcast(roomID uuid.UUID, frame []byte) {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.rooms[roomID]))
	for c := range m.rooms[roomID] {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	for _, c := range conns {
		select {
		case c.send <- frame:
		default:
			log.Warn().Str("room_id", roomID.String()).Msg("dropping slow websocket client")
			m.remove(c)
		}
	}
}

// Run blocks until ctx is cancelled, then closes every connection.
func (m *Manager) Run(ctx context.Context) {
	<-ctx.Done()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conns := range m.rooms {
		for c := range conns {
			close(c.send)
		}
	}
	m.rooms = make(map[uuid.UUID]map[*Connection]bool)
}

func (m *Manager) remove(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conns, ok := m.rooms[c.RoomID]; ok && conns[c] {
		delete(conns, c)
		close(c.send)
		if len(conns) == 0 {
			delete(m.rooms, c.RoomID)
		}
	}
}

func (c *Connection) writePump(config ConnectionConfig) {
	ping := time.NewTicker(config.PingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; clients only listen. It exists to notice
// closes and keep control-frame handling alive.
func (c *Connection) readPump(onClose func()) {
	defer onClose()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
