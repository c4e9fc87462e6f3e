package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// EventSource is what the relay needs from the outbox repository.
type EventSource interface {
	FetchUnsent(ctx context.Context, limit int32) ([]Event, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Relay polls the outbox table and publishes unsent events in order. A
// publish failure leaves the row unsent; the next poll retries it, and the
// publisher's message-id dedup absorbs any double sends.
type Relay struct {
	repo      EventSource
	publisher Publisher
	interval  time.Duration
	batchSize int32
	clock     clockwork.Clock
}

// NewRelay creates an outbox relay.
func NewRelay(repo EventSource, publisher Publisher, interval time.Duration, batchSize int32, clock clockwork.Clock) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Relay{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		clock:     clock,
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	log.Info().Dur("interval", r.interval).Msg("outbox relay started")
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay shutting down")
			return nil
		case <-ticker.Chan():
			if err := r.drain(ctx); err != nil {
				log.Error().Err(err).Msg("outbox drain failed")
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	events, err := r.repo.FetchUnsent(ctx, r.batchSize)
	if err != nil {
		return err
	}
	for _, event := range events {
		if err := r.publisher.Publish(ctx, event); err != nil {
			// Stop the batch; order within the table is preserved and the
			// next tick retries from the failed row.
			log.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Str("event_type", event.EventType).
				Msg("failed to publish outbox event")
			return nil
		}
		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			return err
		}
	}
	return nil
}
