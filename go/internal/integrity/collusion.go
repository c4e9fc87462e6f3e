package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// CompletedDraft describes a finished draft for collusion analysis.
type CompletedDraft struct {
	RoomID      uuid.UUID `json:"room_id"`
	CompletedAt time.Time `json:"completed_at"`
	TeamCount   int       `json:"team_count"`
	TotalPicks  int       `json:"total_picks"`
}

// Analyzer enqueues asynchronous collusion/fraud scoring for a completed
// draft. Scoring itself happens elsewhere; a failure to enqueue is logged
// and never unwinds the completed draft.
type Analyzer interface {
	EnqueueAnalysis(ctx context.Context, draft CompletedDraft) error
}

// NATSAnalyzer hands completed drafts to the scoring service via NATS.
type NATSAnalyzer struct {
	nc      *nats.Conn
	subject string
}

// NewNATSAnalyzer creates an analyzer on the given connection.
func NewNATSAnalyzer(nc *nats.Conn, subject string) *NATSAnalyzer {
	return &NATSAnalyzer{nc: nc, subject: subject}
}

func (a *NATSAnalyzer) EnqueueAnalysis(ctx context.Context, draft CompletedDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal completed draft: %w", err)
	}
	if err := a.nc.Publish(a.subject, data); err != nil {
		return fmt.Errorf("publish completed draft: %w", err)
	}
	return nil
}

// NoopAnalyzer discards analysis requests.
type NoopAnalyzer struct{}

func (NoopAnalyzer) EnqueueAnalysis(ctx context.Context, draft CompletedDraft) error {
	return nil
}
