// Package integration runs the repositories against a real PostgreSQL started
// with testcontainers. The schema comes from the embedded migrations.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/calibra/backend/internal/infrastructure/migration"
	"github.com/calibra/backend/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	shared    testcontainers.Container
	sharedDSN string
	sharedMu  sync.Mutex
)

// TestDB is a connection to the shared, migrated container
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	t     *testing.T
}

// NewTestDB connects to the package container, starting and migrating it on
// first use. Tests isolate themselves by creating their own tenants.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}

	sharedMu.Lock()
	if shared == nil {
		ctx := context.Background()
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("calibra_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			sharedMu.Unlock()
			require.NoError(t, err, "Failed to start PostgreSQL container")
		}
		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			sharedMu.Unlock()
			require.NoError(t, err)
		}
		if err := migrate(dsn); err != nil {
			_ = container.Terminate(ctx)
			sharedMu.Unlock()
			require.NoError(t, err, "Failed to migrate")
		}
		shared, sharedDSN = container, dsn
	}
	dsn := sharedDSN
	sharedMu.Unlock()

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, SqlDB: sqlDB, t: t}
}

func migrate(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	m, err := migration.New(db, migrations.FS, zap.NewNop())
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// TerminateContainer stops the shared container. Call it from TestMain.
func TerminateContainer() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = shared.Terminate(ctx)
	shared, sharedDSN = nil, ""
}

// CreateTenant inserts an active tenant and returns its id
func (tdb *TestDB) CreateTenant() uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	err := tdb.DB.Exec(`INSERT INTO tenants (id, name, slug) VALUES (?, ?, ?)`,
		id, fmt.Sprintf("Lab %s", id.String()[:8]), "lab-"+id.String()[:8]).Error
	require.NoError(tdb.t, err, "Failed to create tenant")
	return id
}
