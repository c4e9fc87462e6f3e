package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/draftkit/draftroom/go/internal/models"
)

// Static is an in-memory catalog for development and tests. Drafted players
// are tracked per room by the caller marking them taken.
type Static struct {
	mu      sync.RWMutex
	players map[uuid.UUID]models.Player
	taken   map[uuid.UUID]map[uuid.UUID]bool // roomID -> playerID
}

// NewStatic builds a static catalog from a fixed player list.
func NewStatic(players []models.Player) *Static {
	byID := make(map[uuid.UUID]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	return &Static{
		players: byID,
		taken:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// GetPlayer returns (nil, nil) for unknown ids, matching the Postgres
// repository's contract.
func (s *Static) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.players[playerID]; ok {
		return &p, nil
	}
	return nil, nil
}

// MarkTaken records that a player has been drafted in a room.
func (s *Static) MarkTaken(roomID, playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken[roomID] == nil {
		s.taken[roomID] = make(map[uuid.UUID]bool)
	}
	s.taken[roomID][playerID] = true
}

// ListAvailablePlayers returns undrafted players for a room, best ADP first.
func (s *Static) ListAvailablePlayers(ctx context.Context, roomID uuid.UUID) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var players []models.Player
	for id, p := range s.players {
		if !s.taken[roomID][id] {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ADPRank < players[j].ADPRank })
	return players, nil
}
