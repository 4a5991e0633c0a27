package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpen_AppliesPoolSettings(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	// gorm pings on open, then Open verifies the pool
	mock.ExpectPing()
	mock.ExpectPing()

	cfg := &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: 5, ConnMaxIdleTime: 1}
	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg, gormlogger.Discard)
	require.NoError(t, err)

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, db.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PingFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(assert.AnError)

	_, err = Open(postgres.New(postgres.Config{Conn: sqlDB}), &config.DatabaseConfig{MaxOpenConns: 1}, gormlogger.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}
