package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/ftz-wms/internal/application/outboxrelay"
	"github.com/jhoicas/ftz-wms/internal/infrastructure/postgres"
	"github.com/jhoicas/ftz-wms/pkg/config"
	"github.com/jhoicas/ftz-wms/pkg/logger"
)

// Binario del relay worker: drena el outbox de ledger de forma independiente
// del API. Se pueden correr varias réplicas; el claim optimista reparte las
// filas entre ellas.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	outboxRepo := postgres.NewLedgerOutboxRepository(pool)
	applier := postgres.NewLedgerApplier(pool)

	workerID := cfg.Outbox.WorkerID
	if workerID == "" {
		host, _ := os.Hostname()
		workerID = "relay-" + host
	}

	relay := outboxrelay.NewRelay(outboxRepo, applier, log, outboxrelay.Config{
		WorkerID:     workerID,
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		BackoffBase:  cfg.Outbox.BackoffBase,
		BackoffMax:   cfg.Outbox.BackoffMax,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		ClaimTimeout: cfg.Outbox.ClaimTimeout,
	})

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("relay finalizado con error")
	}
	log.Info().Msg("relay detenido")
}
