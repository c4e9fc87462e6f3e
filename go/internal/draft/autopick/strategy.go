// Package autopick detects expired pick timers and commits a pick on the
// participant's behalf through the same committer path as manual picks.
package autopick

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/models"
)

// QueueSource yields the participant's best queued player still available,
// or (nil, nil) when the queue is exhausted.
type QueueSource interface {
	NextQueuedPlayer(ctx context.Context, roomID, participantID uuid.UUID) (*models.Player, error)
}

// PlayerSource lists undrafted players for a room, best ADP first.
type PlayerSource interface {
	ListAvailablePlayers(ctx context.Context, roomID uuid.UUID) ([]models.Player, error)
}

// Strategy selects the player an expired turn should draft.
type Strategy interface {
	SelectPlayer(ctx context.Context, room *models.DraftRoom, participant models.Participant, picks []models.Pick) (*models.Player, models.PickSource, error)
}

// QueueThenADP prefers the participant's queued players and falls back to
// best available by ADP, skipping anything the position limits forbid.
type QueueThenADP struct {
	queue   QueueSource
	players PlayerSource
	limits  models.PositionLimits
}

// NewQueueThenADP builds the default autopick strategy.
func NewQueueThenADP(queue QueueSource, players PlayerSource, limits models.PositionLimits) *QueueThenADP {
	if limits == nil {
		limits = models.DefaultPositionLimits()
	}
	return &QueueThenADP{queue: queue, players: players, limits: limits}
}

// SelectPlayer implements Strategy.
func (s *QueueThenADP) SelectPlayer(ctx context.Context, room *models.DraftRoom, participant models.Participant, picks []models.Pick) (*models.Player, models.PickSource, error) {
	counts := roster.CountPositions(picks, participant.DraftPosition-1)

	if s.queue != nil {
		queued, err := s.queue.NextQueuedPlayer(ctx, room.ID, participant.ID)
		if err != nil {
			return nil, "", fmt.Errorf("next queued player: %w", err)
		}
		if queued != nil {
			if s.withinLimit(counts, queued.Position) {
				return queued, models.PickSourceQueue, nil
			}
			log.Debug().
				Str("room_id", room.ID.String()).
				Str("player_id", queued.ID.String()).
				Str("position", queued.Position).
				Msg("queued player blocked by position limit; falling back to ADP")
		}
	}

	available, err := s.players.ListAvailablePlayers(ctx, room.ID)
	if err != nil {
		return nil, "", fmt.Errorf("list available players: %w", err)
	}
	for _, p := range available {
		if s.withinLimit(counts, p.Position) {
			player := p
			return &player, models.PickSourceADPDefault, nil
		}
	}
	return nil, "", fmt.Errorf("no draftable player for participant %s in room %s", participant.ID, room.ID)
}

func (s *QueueThenADP) withinLimit(counts map[string]int, position string) bool {
	limit, capped := s.limits.Limit(position)
	return !capped || counts[position] < limit
}
