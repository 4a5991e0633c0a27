package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/calibra/backend/internal/bootstrap"
	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/calibra/backend/internal/worker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	base, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(base) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, base, "worker")
	if err != nil {
		base.Fatal("Failed to initialize application", zap.Error(err))
	}
	log := app.Logger

	consumer := &worker.Consumer{
		Billing:    app.Services.Contracts,
		Fiscal:     app.Services.Fiscal,
		Statements: app.Services.Settlements,
		Logger:     log.Named("consumer"),
	}
	srv, err := worker.NewService(cfg.Queue, cfg.Redis, consumer, log)
	if err != nil {
		log.Fatal("Failed to create worker", zap.Error(err))
	}
	if err := srv.Start(); err != nil {
		log.Fatal("Failed to start worker", zap.Error(err))
	}
	log.Info("Calibra worker running",
		zap.Int("concurrency", cfg.Queue.Concurrency),
		zap.String("version", bootstrap.Version))

	<-ctx.Done()
	log.Info("Shutting down worker...")
	srv.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("Error releasing resources", zap.Error(err))
	}
}
