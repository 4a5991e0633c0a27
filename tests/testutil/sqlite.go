package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// partialIndexes are the migration indexes struct tags cannot express
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_receivable_billing_marker
		ON accounts_receivable (tenant_id, billing_marker)
		WHERE billing_marker IS NOT NULL AND deleted_at IS NULL`,
}

// NewSQLiteDB opens a private in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so the whole test shares the same memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=UTC", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "Failed to open sqlite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate models")
	for _, stmt := range partialIndexes {
		require.NoError(t, db.Exec(stmt).Error, "Failed to create index")
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}
