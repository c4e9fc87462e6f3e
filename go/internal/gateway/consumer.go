package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// ConsumerConfig holds JetStream consumer settings for the gateway.
type ConsumerConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string
	FilterSubject string
	AckWait       time.Duration
	MaxDeliver    int
}

// DefaultConsumerConfig returns settings matching the outbox publisher's
// stream layout.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		StreamName:    "DRAFTROOM_EVENTS",
		ConsumerName:  "draftroom-gateway",
		FilterSubject: "draftroom.events.>",
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
	}
}

// eventEnvelope mirrors the frame the outbox publisher emits.
type eventEnvelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RoomID    string          `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Consumer pulls room events from JetStream and forwards the raw frames to
// the connection manager for the event's room.
type Consumer struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	manager *Manager
	config  ConsumerConfig
}

// NewConsumer connects to NATS and creates the durable gateway consumer.
func NewConsumer(cfg ConsumerConfig, manager *Manager) (*Consumer, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &Consumer{nc: nc, js: js, manager: manager, config: cfg}, nil
}

// Run consumes events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.config.StreamName, jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		FilterSubject: c.config.FilterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.config.AckWait,
		MaxDeliver:    c.config.MaxDeliver,
	})
	if err != nil {
		return fmt.Errorf("create gateway consumer: %w", err)
	}

	sub, err := cons.Consume(func(msg jetstream.Msg) {
		c.handle(msg)
	})
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	defer sub.Stop()

	log.Info().
		Str("stream", c.config.StreamName).
		Str("consumer", c.config.ConsumerName).
		Msg("gateway event consumer started")

	<-ctx.Done()
	log.Info().Msg("gateway event consumer shutting down")
	return nil
}

func (c *Consumer) handle(msg jetstream.Msg) {
	var env eventEnvelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		log.Error().Err(err).Msg("malformed event frame, dropping")
		msg.Ack()
		return
	}
	roomID, err := uuid.Parse(env.RoomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", env.RoomID).Msg("bad room id in event, dropping")
		msg.Ack()
		return
	}

	c.manager.Broadcast(roomID, msg.Data())
	if err := msg.Ack(); err != nil {
		log.Warn().Err(err).Str("event_id", env.EventID).Msg("failed to ack event")
	}
}

// Close tears down the NATS connection.
func (c *Consumer) Close() error {
	if c.nc != nil {
		c.nc.Close()
	}
	return nil
}
