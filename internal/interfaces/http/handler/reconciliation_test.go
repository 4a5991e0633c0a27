package handler

import (
	"net/http"
	"testing"

	"github.com/calibra/backend/internal/application/reconciliation"
	domainReconciliation "github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const bankOFX = `OFXHEADER:100
<OFX><BANKMSGSRSV1><STMTTRNRS><STMTRS><BANKTRANLIST>
<STMTTRN><TRNTYPE>CREDIT<DTPOSTED>20260310120000<TRNAMT>1500.00<MEMO>PIX RECEBIDO ACME</STMTTRN>
<STMTTRN><TRNTYPE>DEBIT<DTPOSTED>20260311<TRNAMT>-230,50<MEMO>PAGTO FORNECEDOR</STMTTRN>
</BANKTRANLIST></STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>`

func reconciliationHarness(t *testing.T) *harness {
	h := newHarness(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	rh := NewReconciliationHandler(reconciliation.NewService(h.tx, h.repos, zap.NewNop(), reconciliation.WithStore(store)))
	h.engine.POST("/bank-statements", rh.Import)
	h.engine.GET("/bank-statements/:id", rh.GetStatement)
	h.engine.DELETE("/bank-statements/:id", rh.DeleteStatement)
	h.engine.GET("/bank-statement-entries", rh.ListEntries)
	h.engine.GET("/bank-statement-entries/summary", rh.Summary)
	h.engine.POST("/bank-statement-entries/:id/ignore", rh.Ignore)
	h.engine.POST("/bank-statement-entries/:id/restore", rh.Restore)
	return h
}

func TestReconciliationHandler_ImportAndIgnore(t *testing.T) {
	h := reconciliationHarness(t)

	rec := h.upload("/bank-statements", "extrato.ofx", bankOFX, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res reconciliation.ImportResult
	decode(t, rec, &res)
	require.NotNil(t, res.Statement)
	assert.Equal(t, domainReconciliation.FormatOFX, res.Statement.Format)
	assert.Equal(t, 2, res.Statement.TotalEntries)
	assert.Zero(t, res.Duplicates)

	var entries []domainReconciliation.Entry
	list := h.do(http.MethodGet, "/bank-statement-entries?type=debit&bank_statement_id="+res.Statement.ID.String(), nil)
	require.Equal(t, http.StatusOK, list.Code)
	decode(t, list, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "230.5", entries[0].Amount.String())

	ignore := h.do(http.MethodPost, "/bank-statement-entries/"+entries[0].ID.String()+"/ignore", nil)
	require.Equal(t, http.StatusOK, ignore.Code, ignore.Body.String())
	var entry domainReconciliation.Entry
	decode(t, ignore, &entry)
	assert.Equal(t, domainReconciliation.EntryIgnored, entry.Status)

	var sum domainReconciliation.Summary
	decode(t, h.do(http.MethodGet, "/bank-statement-entries/summary", nil), &sum)
	assert.Equal(t, int64(2), sum.TotalEntries)
	assert.Equal(t, int64(1), sum.PendingCount)
	assert.Equal(t, int64(1), sum.IgnoredCount)

	restore := h.do(http.MethodPost, "/bank-statement-entries/"+entries[0].ID.String()+"/restore", nil)
	require.Equal(t, http.StatusOK, restore.Code)
	decode(t, restore, &entry)
	assert.Equal(t, domainReconciliation.EntryPending, entry.Status)
}

func TestReconciliationHandler_ImportRejects(t *testing.T) {
	h := reconciliationHarness(t)

	rec := h.upload("/bank-statements", "", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "A file is required", decode(t, rec, nil).Error.Message)

	rec = h.upload("/bank-statements", "notes.csv", "a,b,c", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReconciliationHandler_EntryFilters(t *testing.T) {
	h := reconciliationHarness(t)

	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodGet, "/bank-statement-entries?status=lost", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodGet, "/bank-statement-entries/summary?bank_statement_id=abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/bank-statement-entries/nope/ignore", nil).Code)
}
