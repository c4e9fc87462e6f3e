package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/draftkit/draftroom/go/internal/catalog"
	"github.com/draftkit/draftroom/go/internal/dbconfig"
	"github.com/draftkit/draftroom/go/internal/draft/autopick"
	"github.com/draftkit/draftroom/go/internal/draft/engine"
	"github.com/draftkit/draftroom/go/internal/draft/queue"
	"github.com/draftkit/draftroom/go/internal/draft/roster"
	"github.com/draftkit/draftroom/go/internal/draft/store"
	"github.com/draftkit/draftroom/go/internal/integrity"
)

// Standalone turn-expiry worker. Runs the scheduler against the shared
// database; a NATS subscription on the event stream wakes it early when a
// pick commit produces a sooner deadline.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	dbCfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	roomStore := store.NewRepository(db)
	playerCatalog := catalog.NewRepository(db)
	queueRepo := queue.NewRepository(db)
	clock := clockwork.NewRealClock()

	sinks := integrity.NewSinks(integrity.NewDispatcher(0, 0), integrity.NoopRecorder{}, integrity.NoopAnalyzer{})
	projector := engine.NewProjector(roomStore, clock, roster.DefaultRequirements(), roster.DefaultUrgencyPolicy())
	app := engine.NewApp(roomStore, playerCatalog, projector, sinks, engine.Config{}, clock)

	strategy := autopick.NewQueueThenADP(queueRepo, playerCatalog, nil)
	scheduler := autopick.NewScheduler(app, roomStore, strategy, 0, 50, 10, clock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}
	nc, err := nats.Connect(natsURL, nats.MaxReconnects(-1), nats.ReconnectWait(2*time.Second))
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable; scheduler runs on poll interval only")
	} else {
		defer nc.Close()
		sub, err := nc.Subscribe("draftroom.events.>", func(msg *nats.Msg) {
			scheduler.Wake()
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to subscribe for wake events")
		} else {
			defer sub.Unsubscribe()
		}
	}

	if err := scheduler.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("expiry scheduler exited")
	}
}
