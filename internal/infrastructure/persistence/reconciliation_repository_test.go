package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStatement(t *testing.T, statements *GormStatementRepository, entries *GormEntryRepository, tenantID uuid.UUID, lines ...reconciliation.ParsedEntry) (*reconciliation.BankStatement, []*reconciliation.Entry) {
	t.Helper()
	ctx := context.Background()
	stmt, err := reconciliation.NewBankStatement(tenantID, "extrato.ofx", reconciliation.FormatOFX, uuid.New())
	require.NoError(t, err)
	stmt.TotalEntries = len(lines)
	require.NoError(t, statements.Save(ctx, stmt))

	out := make([]*reconciliation.Entry, len(lines))
	for i, line := range lines {
		out[i] = reconciliation.NewEntry(tenantID, stmt.ID, line)
	}
	require.NoError(t, entries.SaveAll(ctx, out))
	return stmt, out
}

func TestGormEntryRepository_Summary(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	statements := NewGormStatementRepository(db)
	entries := NewGormEntryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	stmt, rows := seedStatement(t, statements, entries, tenantID,
		reconciliation.ParsedEntry{Date: day, Description: "PIX RECEBIDO", Amount: decimal.RequireFromString("100.50")},
		reconciliation.ParsedEntry{Date: day, Description: "TARIFA", Amount: decimal.RequireFromString("-40.25")},
		reconciliation.ParsedEntry{Date: day, Description: "TED RECEBIDA", Amount: decimal.RequireFromString("10")},
	)
	require.NoError(t, rows[0].Match(reconciliation.MatchedReceivable, uuid.New(), nil, day))
	_, err := rows[1].Ignore()
	require.NoError(t, err)
	rows[2].PossibleDuplicate = true
	require.NoError(t, entries.SaveAll(ctx, rows))

	summary, err := entries.Summary(ctx, tenantID, &stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalEntries)
	assert.Equal(t, int64(1), summary.MatchedCount)
	assert.Equal(t, int64(1), summary.IgnoredCount)
	assert.Equal(t, int64(1), summary.PendingCount)
	assert.Equal(t, 33.3, summary.MatchedPercent)
	assert.True(t, summary.TotalCredits.Equal(decimal.RequireFromString("110.50")), "credits = %s", summary.TotalCredits)
	assert.True(t, summary.TotalDebits.Equal(decimal.RequireFromString("40.25")), "debits = %s", summary.TotalDebits)
	assert.Equal(t, int64(1), summary.DuplicateCount)

	matched, err := entries.CountMatched(ctx, tenantID, stmt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	pending, err := entries.FindPending(ctx, tenantID, stmt.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "TED RECEBIDA", pending[0].Description)
}

func TestGormEntryRepository_ExistsElsewhere(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	statements := NewGormStatementRepository(db)
	entries := NewGormEntryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	line := reconciliation.ParsedEntry{Date: day, Description: "PIX RECEBIDO", Amount: decimal.RequireFromString("250.00")}

	first, _ := seedStatement(t, statements, entries, tenantID, line)
	second, err := reconciliation.NewBankStatement(tenantID, "extrato-2.ofx", reconciliation.FormatOFX, uuid.New())
	require.NoError(t, err)
	tolerance := decimal.RequireFromString(reconciliation.DuplicateTolerance)

	dup, err := entries.ExistsElsewhere(ctx, tenantID, second.ID, day, line.Description, decimal.RequireFromString("250.01"), tolerance)
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = entries.ExistsElsewhere(ctx, tenantID, first.ID, day, line.Description, line.Amount, tolerance)
	require.NoError(t, err)
	assert.False(t, dup, "lines of the same statement are not duplicates")

	dup, err = entries.ExistsElsewhere(ctx, uuid.New(), second.ID, day, line.Description, line.Amount, tolerance)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestGormStatementRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	statements := NewGormStatementRepository(db)
	entries := NewGormEntryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	stmt, rows := seedStatement(t, statements, entries, tenantID,
		reconciliation.ParsedEntry{Date: time.Now().UTC(), Description: "PIX", Amount: decimal.NewFromInt(5)})

	require.NoError(t, statements.Delete(ctx, tenantID, stmt.ID))
	_, err := statements.FindByID(ctx, tenantID, stmt.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = entries.FindByID(ctx, tenantID, rows[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
