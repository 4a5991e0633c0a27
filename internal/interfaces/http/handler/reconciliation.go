package handler

import (
	"context"
	"net/http"

	"github.com/calibra/backend/internal/application/reconciliation"
	domainReconciliation "github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxStatementSize caps uploaded bank files
const maxStatementSize = 10 << 20

// ReconciliationHandler handles bank statement HTTP requests
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *reconciliation.Service
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(reconciliationService *reconciliation.Service) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
	}
}

// Import godoc
// @ID           importBankStatement
// @Summary      Upload a bank statement
// @Description  Accepts OFX, CNAB240 and CNAB400 files. Entries already seen in other statements are flagged.
// @Tags         reconciliation
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Bank file"
// @Success      201 {object} dto.Response{data=reconciliation.ImportResult}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statements [post]
func (h *ReconciliationHandler) Import(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	name, content, ok := h.readUpload(c, maxStatementSize)
	if !ok {
		return
	}
	result, err := h.reconciliationService.Import(c.Request.Context(), tenantID, userID, name, content)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListStatements godoc
// @ID           listBankStatements
// @Summary      List bank statements
// @Tags         reconciliation
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]domainReconciliation.BankStatement,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /bank-statements [get]
func (h *ReconciliationHandler) ListStatements(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.reconciliationService.ListStatements(c.Request.Context(), tenantID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// GetStatement godoc
// @ID           getBankStatement
// @Summary      Get a bank statement
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Statement ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainReconciliation.BankStatement}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statements/{id} [get]
func (h *ReconciliationHandler) GetStatement(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.reconciliationService.GetStatement(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// DeleteStatement godoc
// @ID           deleteBankStatement
// @Summary      Delete a bank statement and its entries
// @Tags         reconciliation
// @Param        id path string true "Statement ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statements/{id} [delete]
func (h *ReconciliationHandler) DeleteStatement(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.reconciliationService.DeleteStatement(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AutoMatch godoc
// @ID           autoMatchBankStatement
// @Summary      Match pending entries of a statement automatically
// @Description  Credits match receivables and debits match payables by amount and due date
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Statement ID" format(uuid)
// @Success      200 {object} dto.Response{data=reconciliation.AutoMatchResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statements/{id}/auto-match [post]
func (h *ReconciliationHandler) AutoMatch(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.reconciliationService.AutoMatch(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListEntries godoc
// @ID           listBankStatementEntries
// @Summary      List statement entries
// @Tags         reconciliation
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        bank_statement_id query string false "Statement" format(uuid)
// @Param        status query string false "pending, matched or ignored"
// @Param        type query string false "credit or debit"
// @Param        possible_duplicate query bool false "Only flagged duplicates"
// @Success      200 {object} dto.Response{data=[]domainReconciliation.Entry,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /bank-statement-entries [get]
func (h *ReconciliationHandler) ListEntries(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f reconciliation.EntryListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.reconciliationService.ListEntries(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// Match godoc
// @ID           matchBankStatementEntry
// @Summary      Link an entry to a receivable or payable
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Param        request body reconciliation.MatchRequest true "Target"
// @Success      200 {object} dto.Response{data=domainReconciliation.Entry}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statement-entries/{id}/match [post]
func (h *ReconciliationHandler) Match(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req reconciliation.MatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	entry, err := h.reconciliationService.Match(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Unmatch godoc
// @ID           unmatchBankStatementEntry
// @Summary      Remove the link of a matched entry
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainReconciliation.Entry}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statement-entries/{id}/unmatch [post]
func (h *ReconciliationHandler) Unmatch(c *gin.Context) {
	h.entryAction(c, h.reconciliationService.Unmatch)
}

// Ignore godoc
// @ID           ignoreBankStatementEntry
// @Summary      Ignore an entry
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainReconciliation.Entry}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statement-entries/{id}/ignore [post]
func (h *ReconciliationHandler) Ignore(c *gin.Context) {
	h.entryAction(c, h.reconciliationService.Ignore)
}

// Restore godoc
// @ID           restoreBankStatementEntry
// @Summary      Return an ignored entry to pending
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainReconciliation.Entry}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statement-entries/{id}/restore [post]
func (h *ReconciliationHandler) Restore(c *gin.Context) {
	h.entryAction(c, h.reconciliationService.Restore)
}

func (h *ReconciliationHandler) entryAction(c *gin.Context, fn func(ctx context.Context, tenantID, entryID uuid.UUID) (*domainReconciliation.Entry, error)) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	entry, err := fn(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Suggestions godoc
// @ID           getBankStatementEntrySuggestions
// @Summary      Ranked match candidates for an entry
// @Tags         reconciliation
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]domainReconciliation.Suggestion}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statement-entries/{id}/suggestions [get]
func (h *ReconciliationHandler) Suggestions(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	suggestions, err := h.reconciliationService.Suggestions(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestions)
}

// Bulk godoc
// @ID           bulkBankStatementEntries
// @Summary      Apply one action to many entries
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        request body reconciliation.BulkRequest true "Action and entries"
// @Success      200 {object} dto.Response{data=reconciliation.BulkResult}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bank-statement-entries/bulk [post]
func (h *ReconciliationHandler) Bulk(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req reconciliation.BulkRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.reconciliationService.Bulk(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Summary godoc
// @ID           getReconciliationSummary
// @Summary      Reconciliation counters
// @Tags         reconciliation
// @Produce      json
// @Param        bank_statement_id query string false "Statement" format(uuid)
// @Success      200 {object} dto.Response{data=domainReconciliation.Summary}
// @Security     BearerAuth
// @Router       /bank-statement-entries/summary [get]
func (h *ReconciliationHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var statementID *uuid.UUID
	if raw := c.Query("bank_statement_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeValidation, "Invalid bank_statement_id")
			return
		}
		statementID = &id
	}
	sum, err := h.reconciliationService.Summary(c.Request.Context(), tenantID, statementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sum)
}
