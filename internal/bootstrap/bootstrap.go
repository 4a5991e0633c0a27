// Package bootstrap assembles the process-wide dependencies shared by the API
// server, the queue worker and the jobs command.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/calibra/backend/internal/infrastructure/auth"
	"github.com/calibra/backend/internal/infrastructure/authz"
	"github.com/calibra/backend/internal/infrastructure/cache"
	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/calibra/backend/internal/infrastructure/event"
	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/calibra/backend/internal/infrastructure/persistence"
	"github.com/calibra/backend/internal/infrastructure/queue"
	"github.com/calibra/backend/internal/infrastructure/storage"
	"github.com/calibra/backend/internal/infrastructure/telemetry"
	"github.com/calibra/backend/internal/interfaces/http/handler"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is stamped at build time with -ldflags "-X .../bootstrap.Version=..."
var Version = "dev"

// App holds the infrastructure and services of one process
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Telemetry *telemetry.Providers
	Profiler  *telemetry.Profiler
	DB        *persistence.Database
	// Redis is nil when the server could not be reached at startup
	Redis     *redis.Client
	Blacklist auth.TokenBlacklist
	JWT       *auth.JWTService
	Authz     *authz.Service

	Store    storage.Store
	Queue    *queue.Client
	EventBus *event.InMemoryEventBus
	Services *Services

	closers []func(context.Context) error
}

// NewLogger builds the base zap logger from the log section
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}

// New connects every backing service and builds the application services.
// component names the process in profiles ("api", "worker", "jobs").
// On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, base *zap.Logger, component string) (_ *App, err error) {
	a := &App{Config: cfg, Logger: base}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Telemetry, err = telemetry.Setup(ctx, telemetry.FromConfig(cfg.Telemetry, Version), base)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.onClose(a.Telemetry.Shutdown)

	level, lerr := zapcore.ParseLevel(cfg.Log.Level)
	if lerr != nil {
		level = zapcore.InfoLevel
	}
	a.Logger = telemetry.BridgeLogger(base, a.Telemetry, level).With(zap.String("component", component))
	log := a.Logger

	a.Profiler, err = telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilerEnabled,
		ServerAddress:   cfg.Telemetry.ProfilerAddress,
		ApplicationName: cfg.Telemetry.ServiceName + "." + component,
	}, log)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return a.Profiler.Stop() })
	if a.Profiler.Enabled() {
		a.Telemetry.EnableSpanProfiles()
	}

	a.DB, err = persistence.NewDatabase(ctx, &cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return a.DB.Close() })
	if err = telemetry.InstrumentDB(a.DB.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		return nil, fmt.Errorf("database instrumentation: %w", err)
	}
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	if client, rerr := cache.NewRedisClient(cfg.Redis); rerr != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist and idempotency store", zap.Error(rerr))
		a.Blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		a.Redis = client
		a.Blacklist = auth.NewRedisTokenBlacklist(client)
		a.onClose(func(context.Context) error { return client.Close() })
	}
	a.JWT = auth.NewJWTService(cfg.JWT)

	if a.Authz, err = authz.NewService(a.DB.DB); err != nil {
		return nil, fmt.Errorf("authz: %w", err)
	}
	if err = a.Authz.SeedBuiltinRoles(); err != nil {
		return nil, fmt.Errorf("authz seed: %w", err)
	}

	if a.Store, err = storage.New(ctx, cfg.Storage, log); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	a.Queue = queue.NewClient(cfg.Queue, cfg.Redis)
	a.onClose(func(context.Context) error { return a.Queue.Close() })

	a.EventBus = event.NewInMemoryEventBus(log, event.WithAsyncWorkers(cfg.Event.AsyncWorkers))
	a.onClose(a.EventBus.Stop)

	if a.Services, err = newServices(ctx, a); err != nil {
		return nil, err
	}
	if err = a.subscribe(); err != nil {
		return nil, err
	}
	if err = a.EventBus.Start(ctx); err != nil {
		return nil, fmt.Errorf("event bus: %w", err)
	}
	return a, nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, fn := range slices.Backward(a.closers) {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Pingers returns the dependencies checked by the health endpoint
func (a *App) Pingers() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": a.DB}
	if a.Redis != nil {
		checks["redis"] = PingFunc(func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() })
	}
	return checks
}

// PingFunc adapts a function to handler.Pinger
type PingFunc func(ctx context.Context) error

// Ping implements handler.Pinger
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
