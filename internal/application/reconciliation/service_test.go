package reconciliation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence"
	"github.com/calibra/backend/internal/infrastructure/storage"
	"github.com/calibra/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const statementOFX = `OFXHEADER:100
<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS><BANKTRANLIST>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20260310120000<TRNAMT>1500.00<MEMO>PIX RECEBIDO ACME</STMTTRN>
<STMTTRN><TRNTYPE>DEBIT<DTPOSTED>20260311<TRNAMT>-230,50<MEMO>PAGTO FORNECEDOR</STMTTRN>
</BANKTRANLIST></STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`

var march15 = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	store    storage.Store
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	f := &fixture{
		db:       db,
		store:    store,
		svc:      NewService(persistence.NewGormTransactionScope(db), persistence.NewRepositorySet(db), zap.NewNop(), WithStore(store)),
		tenantID: uuid.New(),
		userID:   uuid.New(),
	}
	f.svc.now = func() time.Time { return march15 }
	return f
}

func (f *fixture) importOFX(t *testing.T) *ImportResult {
	t.Helper()
	res, err := f.svc.Import(context.Background(), f.tenantID, f.userID, "extrato.ofx", []byte(statementOFX))
	require.NoError(t, err)
	return res
}

func (f *fixture) receivable(t *testing.T, description, amount string, due time.Time) *finance.AccountReceivable {
	t.Helper()
	ar, err := finance.NewAccountReceivable(f.tenantID, uuid.New(), description, decimal.RequireFromString(amount), due)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormReceivableRepository(f.db).Save(context.Background(), ar))
	return ar
}

func (f *fixture) payable(t *testing.T, description, amount string, due time.Time) *finance.AccountPayable {
	t.Helper()
	ap, err := finance.NewAccountPayable(f.tenantID, "Fornecedor", description, decimal.RequireFromString(amount), due)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormPayableRepository(f.db).Save(context.Background(), ap))
	return ap
}

func (f *fixture) entries(t *testing.T, statementID uuid.UUID) []reconciliation.Entry {
	t.Helper()
	page, err := f.svc.ListEntries(context.Background(), f.tenantID, EntryListFilter{StatementID: &statementID})
	require.NoError(t, err)
	return page.Items
}

func entryOfType(t *testing.T, entries []reconciliation.Entry, typ reconciliation.EntryType) reconciliation.Entry {
	t.Helper()
	for _, e := range entries {
		if e.Type == typ {
			return e
		}
	}
	t.Fatalf("no %s entry", typ)
	return reconciliation.Entry{}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestImport_StoresFileAndFlagsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.importOFX(t)
	assert.Equal(t, reconciliation.FormatOFX, first.Statement.Format)
	assert.Equal(t, 2, first.Statement.TotalEntries)
	assert.Zero(t, first.Duplicates)
	require.NotEmpty(t, first.Statement.StorageKey)
	stored, err := f.store.Get(ctx, first.Statement.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, statementOFX, string(stored))

	second := f.importOFX(t)
	assert.Equal(t, 2, second.Duplicates)
	dup := true
	page, err := f.svc.ListEntries(ctx, f.tenantID, EntryListFilter{PossibleDuplicate: &dup})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	credit := entryOfType(t, f.entries(t, first.Statement.ID), reconciliation.EntryCredit)
	assert.True(t, credit.Amount.Equal(decimal.NewFromInt(1500)))
	debit := entryOfType(t, f.entries(t, first.Statement.ID), reconciliation.EntryDebit)
	assert.True(t, debit.Amount.Equal(decimal.RequireFromString("230.50")))
}

func TestImport_RejectsUnknownLayout(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Import(context.Background(), f.tenantID, f.userID, "notes.csv", []byte("a,b,c"))
	assertCode(t, err, shared.CodeValidation)
}

func TestAutoMatch_PicksEarliestDueDateWithinWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.importOFX(t)

	early := f.receivable(t, "Parcela 1", "1500.03", time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC))
	f.receivable(t, "Parcela 2", "1500.00", time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	f.receivable(t, "Fora da janela", "1500.00", time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC))
	supplier := f.payable(t, "Compra de padrões", "230.50", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))

	out, err := f.svc.AutoMatch(ctx, f.tenantID, res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Matched)
	assert.Equal(t, 2, out.MatchedEntries)

	entries := f.entries(t, res.Statement.ID)
	credit := entryOfType(t, entries, reconciliation.EntryCredit)
	require.NotNil(t, credit.MatchedID)
	assert.Equal(t, early.ID, *credit.MatchedID)
	assert.Equal(t, reconciliation.MatchedReceivable, *credit.MatchedType)
	debit := entryOfType(t, entries, reconciliation.EntryDebit)
	assert.Equal(t, supplier.ID, *debit.MatchedID)
	assert.Nil(t, debit.ReconciledBy)
}

func TestMatchUnmatchIgnoreRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.importOFX(t)
	ar := f.receivable(t, "Calibração", "1500.00", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	credit := entryOfType(t, f.entries(t, res.Statement.ID), reconciliation.EntryCredit)

	_, err := f.svc.Match(ctx, f.tenantID, f.userID, credit.ID, MatchRequest{MatchedType: "receivable", MatchedID: uuid.New()})
	assertCode(t, err, shared.CodeValidation)
	_, err = f.svc.Match(ctx, f.tenantID, f.userID, credit.ID, MatchRequest{MatchedType: "voucher", MatchedID: ar.ID})
	assertCode(t, err, shared.CodeValidation)

	matched, err := f.svc.Match(ctx, f.tenantID, f.userID, credit.ID, MatchRequest{MatchedType: "accounts_receivable", MatchedID: ar.ID})
	require.NoError(t, err)
	assert.Equal(t, reconciliation.EntryMatched, matched.Status)
	assert.Equal(t, f.userID, *matched.ReconciledBy)
	statement, err := f.svc.GetStatement(ctx, f.tenantID, res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, statement.MatchedEntries)

	_, err = f.svc.Match(ctx, f.tenantID, f.userID, credit.ID, MatchRequest{MatchedType: "receivable", MatchedID: ar.ID})
	assertCode(t, err, shared.CodeInvalidState)

	unmatched, err := f.svc.Unmatch(ctx, f.tenantID, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.EntryPending, unmatched.Status)
	assert.Nil(t, unmatched.MatchedID)
	_, err = f.svc.Unmatch(ctx, f.tenantID, credit.ID)
	assertCode(t, err, shared.CodeInvalidState)

	_, err = f.svc.Match(ctx, f.tenantID, f.userID, credit.ID, MatchRequest{MatchedType: "receivable", MatchedID: ar.ID})
	require.NoError(t, err)
	ignored, err := f.svc.Ignore(ctx, f.tenantID, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.EntryIgnored, ignored.Status)
	statement, err = f.svc.GetStatement(ctx, f.tenantID, res.Statement.ID)
	require.NoError(t, err)
	assert.Zero(t, statement.MatchedEntries)

	restored, err := f.svc.Restore(ctx, f.tenantID, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.EntryPending, restored.Status)
}

func TestSuggestions_RankByScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.importOFX(t)
	best := f.receivable(t, "PIX recebido ACME", "1500.00", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	f.receivable(t, "Outro cliente", "1400.00", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))
	f.receivable(t, "Muito maior", "5000.00", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	credit := entryOfType(t, f.entries(t, res.Statement.ID), reconciliation.EntryCredit)

	suggestions, err := f.svc.Suggestions(ctx, f.tenantID, credit.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, best.ID, suggestions[0].ID)
	assert.InDelta(t, 100.0, suggestions[0].Score, 0.01)
	assert.Greater(t, suggestions[0].Score, suggestions[1].Score)
}

func TestBulk_AutoMatchIgnoreUnmatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.importOFX(t)
	f.receivable(t, "PIX recebido ACME", "1500.00", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	entries := f.entries(t, res.Statement.ID)
	ids := []uuid.UUID{entries[0].ID, entries[1].ID}

	out, err := f.svc.Bulk(ctx, f.tenantID, f.userID, BulkRequest{Action: "auto-match", EntryIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Processed, "debit has no payable to match")
	assert.Equal(t, 2, out.Total)

	out, err = f.svc.Bulk(ctx, f.tenantID, f.userID, BulkRequest{Action: "unmatch", EntryIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Processed)

	out, err = f.svc.Bulk(ctx, f.tenantID, f.userID, BulkRequest{Action: "ignore", EntryIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Processed)

	sum, err := f.svc.Summary(ctx, f.tenantID, &res.Statement.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.TotalEntries)
	assert.Equal(t, int64(2), sum.IgnoredCount)
	assert.True(t, sum.TotalCredits.Equal(decimal.NewFromInt(1500)))
	assert.True(t, sum.TotalDebits.Equal(decimal.RequireFromString("230.50")))

	_, err = f.svc.Bulk(ctx, f.tenantID, f.userID, BulkRequest{Action: "delete", EntryIDs: ids})
	assertCode(t, err, shared.CodeValidation)
	_, err = f.svc.Bulk(ctx, f.tenantID, f.userID, BulkRequest{Action: "ignore"})
	assertCode(t, err, shared.CodeValidation)
}

func TestBulk_AutoMatchUsesEachDocumentOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	twin := `OFXHEADER:100
<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS><BANKTRANLIST>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20260310<TRNAMT>800.00<MEMO>PIX RECEBIDO BETA</STMTTRN>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20260310<TRNAMT>800.00<MEMO>PIX RECEBIDO BETA</STMTTRN>
</BANKTRANLIST></STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`
	res, err := f.svc.Import(ctx, f.tenantID, f.userID, "gemeos.ofx", []byte(twin))
	require.NoError(t, err)
	ar := f.receivable(t, "PIX recebido Beta", "800.00", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	entries := f.entries(t, res.Statement.ID)
	require.Len(t, entries, 2)
	out, err := f.svc.Bulk(ctx, f.tenantID, f.userID, BulkRequest{
		Action:   "auto-match",
		EntryIDs: []uuid.UUID{entries[0].ID, entries[1].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Processed)

	var matched []reconciliation.Entry
	for _, e := range f.entries(t, res.Statement.ID) {
		if e.Status == reconciliation.EntryMatched {
			matched = append(matched, e)
		}
	}
	require.Len(t, matched, 1)
	require.NotNil(t, matched[0].MatchedID)
	assert.Equal(t, ar.ID, *matched[0].MatchedID)
}

func TestDeleteStatement_RemovesEntriesAndFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.importOFX(t)

	require.NoError(t, f.svc.DeleteStatement(ctx, f.tenantID, res.Statement.ID))
	_, err := f.svc.GetStatement(ctx, f.tenantID, res.Statement.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, f.entries(t, res.Statement.ID))
	_, err = f.store.Get(ctx, res.Statement.StorageKey)
	assert.Error(t, err)
}
