// cmd/engine/main.go
//
// The delivery-engine daemon. Every tick it evaluates due drip steps and
// scheduled sends and pushes them to the messaging provider.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/driplinehq/dripline-backend/internal/config"
	"github.com/driplinehq/dripline-backend/internal/db"
	"github.com/driplinehq/dripline-backend/internal/engine"
	"github.com/driplinehq/dripline-backend/internal/events"
	"github.com/driplinehq/dripline-backend/internal/logging"
	"github.com/driplinehq/dripline-backend/internal/provider"
	"github.com/driplinehq/dripline-backend/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// fine in production, env comes from the platform
	}

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.EnsureSchema(conn); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	// Provider credentials live in a rotatable file, not in env vars. The
	// watcher refreshes the snapshot; the engine reads it fresh each cycle.
	creds := provider.NewCredentialStore(cfg.CredentialsPath, log)
	if err := creds.Load(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.CredentialsPath).Msg("failed to load provider credentials")
	}
	go func() {
		if err := creds.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("credentials watcher exited")
		}
	}()

	var publisher events.Publisher = &events.LogPublisher{Log: log}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("AMQP unavailable, delivery reports go to the log only")
		} else {
			defer amqpPub.Close()
			publisher = amqpPub
		}
	}

	// The limiter outlives per-cycle gateway rebuilds so pacing is continuous.
	var limiter *rate.Limiter
	if cfg.ProviderRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ProviderRPS), 1)
	}

	eng := &engine.Engine{
		Recipients: &repository.RecipientRepository{DB: conn},
		Steps:      &repository.DripStepRepository{DB: conn},
		Sends:      &repository.ScheduledSendRepository{DB: conn},
		Marker:     &repository.RunMarkerRepository{DB: conn},
		Gateway: func() provider.Gateway {
			return provider.NewHTTPGateway(creds.Snapshot(), limiter)
		},
		Dispatcher: engine.NewDispatcher(cfg.BatchLimit),
		Events:     publisher,
		Zone:       cfg.ReferenceZone(),
		Log:        log,
	}

	sched := engine.NewScheduler(eng, cfg.EngineInterval, log)
	if err := sched.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("scheduler failed")
	}
}
