package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	applogger "github.com/calibra/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// connectAttempts covers a database container that starts after the API
const connectAttempts = 5

// Database is the shared gorm handle and its connection pool
type Database struct {
	DB   *gorm.DB
	pool *sql.DB
}

// NewDatabase opens PostgreSQL, retrying the first ping with a linear
// backoff. Queries are logged through zap at the configured level.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger, logLevel string) (*Database, error) {
	gl := applogger.NewGormLogger(log, applogger.MapGormLogLevel(logLevel))
	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(gl))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d, err := wrap(gormDB, cfg)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		err = d.Ping(ctx)
		if err == nil {
			return d, nil
		}
		if attempt == connectAttempts {
			_ = d.pool.Close()
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
		}
		log.Warn("Database not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = d.pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
}

// Open connects with an arbitrary dialector and checks the pool once
func Open(dialector gorm.Dialector, cfg *config.DatabaseConfig, gl gormlogger.Interface) (*Database, error) {
	gormDB, err := gorm.Open(dialector, gormConfig(gl))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d, err := wrap(gormDB, cfg)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return d, nil
}

func gormConfig(gl gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
}

func wrap(gormDB *gorm.DB, cfg *config.DatabaseConfig) (*Database, error) {
	pool, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	return &Database{DB: gormDB, pool: pool}, nil
}

func (d *Database) Close() error { return d.pool.Close() }

// Ping backs the health endpoint
func (d *Database) Ping(ctx context.Context) error { return d.pool.PingContext(ctx) }

// Stats reports the pool for diagnostics
func (d *Database) Stats() sql.DBStats { return d.pool.Stats() }
