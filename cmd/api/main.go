package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/ftz-wms/internal/application/outboxrelay"
	"github.com/jhoicas/ftz-wms/internal/application/splitorder"
	"github.com/jhoicas/ftz-wms/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/ftz-wms/internal/interfaces/http"
	"github.com/jhoicas/ftz-wms/pkg/config"
	"github.com/jhoicas/ftz-wms/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando API de split orders")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	orderRepo := postgres.NewSplitOrderRepository(pool)
	statRepo := postgres.NewRequirementStatRepository(pool)
	tempRepo := postgres.NewPalletTempRepository(pool)
	packageRepo := postgres.NewPackageRepository(pool)
	reqRepo := postgres.NewOperationRequirementRepository(pool)
	outboxRepo := postgres.NewLedgerOutboxRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	splitOrderUC := splitorder.NewUseCase(txRunner, orderRepo, statRepo, tempRepo, reqRepo)
	scanAllocator := splitorder.NewScanAllocator(txRunner, orderRepo, packageRepo, reqRepo, cfg.Split.DefaultPalletCapacity)
	finalizer := splitorder.NewFinalizer(txRunner, orderRepo)
	outboxAdminUC := outboxrelay.NewAdminUseCase(outboxRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		SplitOrderUC:  splitOrderUC,
		ScanAllocator: scanAllocator,
		Finalizer:     finalizer,
		OutboxAdminUC: outboxAdminUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
