package main

import (
	"database/sql"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/draftkit/draftroom/go/internal/catalog"
	"github.com/draftkit/draftroom/go/internal/draft/autopick"
	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/draft/outbox"
	"github.com/draftkit/draftroom/go/internal/draft/queue"
	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/draft/store"
	"github.com/draftkit/draftroom/go/internal/gateway"
	"github.com/draftkit/draftroom/go/internal/integrity"
)

// Services holds every long-lived component of the process.
type Services struct {
	App        *engine.App
	Scheduler  *autopick.Scheduler
	Relay      *outbox.Relay
	Dispatcher *integrity.Dispatcher
	Manager    *gateway.Manager
	Handler    *gateway.Handler
	Consumer   *gateway.Consumer

	natsConn  *nats.Conn
	publisher *outbox.JetStreamPublisher
}

func setupServices(database *sql.DB, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → Engine layer → Boundary layer
	clock := clockwork.NewRealClock()
	limits := config.positionLimits()
	grace := config.gracePeriod()

	roomStore := store.NewRepository(database)
	playerCatalog := catalog.NewRepository(database)
	queueRepo := queue.NewRepository(database)

	// Integrity side effects: best effort, never on the commit path.
	natsURL := getEnv("NATS_URL", nats.DefaultURL)
	dispatcher := integrity.NewDispatcher(config.Integrity.Workers, config.Integrity.Buffer)

	var recorder integrity.Recorder = integrity.NoopRecorder{}
	var analyzer integrity.Analyzer = integrity.NoopAnalyzer{}
	var publisher outbox.Publisher = outbox.LogPublisher{}
	var nc *nats.Conn
	var jsPublisher *outbox.JetStreamPublisher

	if getEnv("NATS_ENABLED", "true") == "true" {
		var err error
		nc, err = nats.Connect(natsURL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return nil, err
		}
		recorder = integrity.NewNATSRecorder(nc, "draftroom.integrity.picks")
		analyzer = integrity.NewNATSAnalyzer(nc, "draftroom.integrity.completed")

		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = natsURL
		jsPublisher, err = outbox.NewJetStreamPublisher(jsCfg)
		if err != nil {
			nc.Close()
			return nil, err
		}
		publisher = jsPublisher
	} else {
		log.Warn().Msg("NATS disabled; integrity signals dropped and events logged only")
	}

	sinks := integrity.NewSinks(dispatcher, recorder, analyzer)

	projector := engine.NewProjector(roomStore, clock, roster.DefaultRequirements(), config.urgencyPolicy())
	app := engine.NewApp(roomStore, playerCatalog, projector, sinks, engine.Config{
		Limits:      limits,
		GracePeriod: grace,
	}, clock)

	strategy := autopick.NewQueueThenADP(queueRepo, playerCatalog, limits)
	scheduler := autopick.NewScheduler(app, roomStore, strategy, grace,
		config.Autopick.BatchSize, config.Autopick.Workers, clock)

	outboxRepo := outbox.NewRepository(database)
	relay := outbox.NewRelay(outboxRepo, publisher,
		time.Duration(config.Outbox.PollIntervalMS)*time.Millisecond,
		config.Outbox.BatchSize, clock)

	manager := gateway.NewManager(gateway.DefaultConnectionConfig())
	handler := gateway.NewHandler(app, manager, queueRepo, roomStore)

	var consumer *gateway.Consumer
	if nc != nil {
		consumerCfg := gateway.DefaultConsumerConfig()
		consumerCfg.URL = natsURL
		var err error
		consumer, err = gateway.NewConsumer(consumerCfg, manager)
		if err != nil {
			nc.Close()
			return nil, err
		}
	}

	return &Services{
		App:        app,
		Scheduler:  scheduler,
		Relay:      relay,
		Dispatcher: dispatcher,
		Manager:    manager,
		Handler:    handler,
		Consumer:   consumer,
		natsConn:   nc,
		publisher:  jsPublisher,
	}, nil
}

// Close tears down external connections.
func (s *Services) Close() {
	if s.Consumer != nil {
		s.Consumer.Close()
	}
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.natsConn != nil {
		s.natsConn.Close()
	}
}
