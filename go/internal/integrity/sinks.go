package integrity

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/draftkit/draftroom/go/internal/models"
)

// Sinks adapts the recorder and analyzer to the engine's post-commit hook.
// Every call submits to the dispatcher and returns immediately; failures are
// logged, never propagated.
type Sinks struct {
	dispatcher *Dispatcher
	recorder   Recorder
	analyzer   Analyzer
}

// NewSinks bundles the integrity sinks behind the dispatcher.
func NewSinks(dispatcher *Dispatcher, recorder Recorder, analyzer Analyzer) *Sinks {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if analyzer == nil {
		analyzer = NoopAnalyzer{}
	}
	return &Sinks{dispatcher: dispatcher, recorder: recorder, analyzer: analyzer}
}

// PickCommitted records the integrity signal for one committed pick.
func (s *Sinks) PickCommitted(room *models.DraftRoom, pick models.Pick) {
	signal := PickSignal{
		RoomID:        room.ID,
		PickID:        pick.ID,
		ParticipantID: pick.ParticipantID,
		PickNumber:    pick.PickNumber,
		IsAutopick:    pick.IsAutopick,
		MadeAt:        pick.PickedAt,
	}
	s.dispatcher.Submit(func(ctx context.Context) {
		if err := s.recorder.RecordPickSignal(ctx, signal); err != nil {
			log.Warn().Err(err).
				Str("room_id", signal.RoomID.String()).
				Int("pick_number", signal.PickNumber).
				Msg("failed to record pick integrity signal")
		}
	})
}

// DraftCompleted enqueues collusion analysis for the finished draft.
func (s *Sinks) DraftCompleted(room *models.DraftRoom, completedAt time.Time) {
	draft := CompletedDraft{
		RoomID:      room.ID,
		CompletedAt: completedAt,
		TeamCount:   room.TeamCount,
		TotalPicks:  room.TotalPicks(),
	}
	s.dispatcher.Submit(func(ctx context.Context) {
		if err := s.analyzer.EnqueueAnalysis(ctx, draft); err != nil {
			log.Warn().Err(err).
				Str("room_id", draft.RoomID.String()).
				Msg("failed to enqueue collusion analysis")
		}
	})
}
