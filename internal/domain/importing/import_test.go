package importing

import (
	"testing"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedImport(t *testing.T, ids ...uuid.UUID) *Import {
	t.Helper()
	imp, err := NewImport(uuid.New(), EntityCustomers, "clientes.csv", uuid.New())
	require.NoError(t, err)
	require.NoError(t, imp.Start(len(ids)))
	for _, id := range ids {
		imp.RecordInserted(id)
	}
	require.NoError(t, imp.Finish())
	return imp
}

func TestNewImport_Validation(t *testing.T) {
	_, err := NewImport(uuid.New(), EntityType("products"), "a.csv", uuid.New())
	assert.Error(t, err)
	_, err = NewImport(uuid.New(), EntityEquipments, "", uuid.New())
	assert.Error(t, err)
}

func TestImport_FinishWithOnlyErrorsFails(t *testing.T) {
	imp, err := NewImport(uuid.New(), EntityCustomers, "c.csv", uuid.New())
	require.NoError(t, err)
	require.NoError(t, imp.Start(1))
	imp.RecordError(RowError{Row: 2, Column: "name", Message: "required"})
	require.NoError(t, imp.Finish())
	assert.Equal(t, StatusFailed, imp.Status)
	assert.ErrorIs(t, imp.EnsureRollbackable(), shared.ErrInvalidState)
}

func TestImport_Rollback(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	t.Run("full", func(t *testing.T) {
		imp := finishedImport(t, a, b, c)
		require.NoError(t, imp.EnsureRollbackable())
		res := imp.CompleteRollback(nil)
		assert.Equal(t, RollbackResult{Deleted: 3, Failed: 0, Total: 3}, res)
		assert.Equal(t, StatusRolledBack, imp.Status)
		assert.Error(t, imp.EnsureRollbackable(), "a rolled back import cannot be rolled back again")
	})

	t.Run("partial keeps failed ids", func(t *testing.T) {
		imp := finishedImport(t, a, b, c)
		res := imp.CompleteRollback([]uuid.UUID{b})
		assert.Equal(t, RollbackResult{Deleted: 2, Failed: 1, Total: 3}, res)
		assert.Equal(t, StatusPartiallyRolledBack, imp.Status)
		assert.Equal(t, []uuid.UUID{b}, imp.ImportedIDs)
	})

	t.Run("nothing imported", func(t *testing.T) {
		imp, err := NewImport(uuid.New(), EntityCustomers, "c.csv", uuid.New())
		require.NoError(t, err)
		require.NoError(t, imp.Start(0))
		require.NoError(t, imp.Finish())
		assert.Equal(t, StatusDone, imp.Status)
		assert.Error(t, imp.EnsureRollbackable())
	})
}
