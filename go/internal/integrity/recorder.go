package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// PickSignal is the per-pick record handed to the integrity pipeline.
type PickSignal struct {
	RoomID        uuid.UUID `json:"room_id"`
	PickID        uuid.UUID `json:"pick_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	PickNumber    int       `json:"pick_number"`
	IsAutopick    bool      `json:"is_autopick"`
	MadeAt        time.Time `json:"made_at"`
}

// Recorder records location/device integrity signals for committed picks.
type Recorder interface {
	RecordPickSignal(ctx context.Context, signal PickSignal) error
}

// NATSRecorder publishes signals to a NATS subject consumed by the integrity
// pipeline. Plain publish, no acknowledgement: the contract is best-effort.
type NATSRecorder struct {
	nc      *nats.Conn
	subject string
}

// NewNATSRecorder creates a recorder on the given connection.
func NewNATSRecorder(nc *nats.Conn, subject string) *NATSRecorder {
	return &NATSRecorder{nc: nc, subject: subject}
}

func (r *NATSRecorder) RecordPickSignal(ctx context.Context, signal PickSignal) error {
	data, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal pick signal: %w", err)
	}
	if err := r.nc.Publish(r.subject, data); err != nil {
		return fmt.Errorf("publish pick signal: %w", err)
	}
	return nil
}

// NoopRecorder discards signals; used when no integrity pipeline is wired.
type NoopRecorder struct{}

func (NoopRecorder) RecordPickSignal(ctx context.Context, signal PickSignal) error {
	return nil
}
