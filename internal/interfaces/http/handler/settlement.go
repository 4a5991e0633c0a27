package handler

import (
	"net/http"

	"github.com/calibra/backend/internal/application/commission"
	"github.com/calibra/backend/internal/infrastructure/queue"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// StatementQueue schedules background statement rendering
type StatementQueue interface {
	EnqueueCommissionStatement(payload queue.CommissionStatementPayload) error
}

// SettlementHandler handles commission settlement HTTP requests
type SettlementHandler struct {
	BaseHandler
	settlementService *commission.SettlementService
	queue             StatementQueue
}

// NewSettlementHandler creates a new settlement handler. A nil queue disables
// background statement publishing.
func NewSettlementHandler(settlementService *commission.SettlementService, q StatementQueue) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		queue:             q,
	}
}

// Close godoc
// @ID           closeCommissionSettlement
// @Summary      Close a user's commission period
// @Description  Links the user's approved events of the period to a new settlement
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body commission.CloseSettlementRequest true "User and period"
// @Success      201 {object} dto.Response{data=commission.Settlement}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/close [post]
func (h *SettlementHandler) Close(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req commission.CloseSettlementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	st, err := h.settlementService.Close(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, st)
}

// Approve godoc
// @ID           approveCommissionSettlement
// @Summary      Approve a closed settlement
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.Settlement}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/{id}/approve [post]
func (h *SettlementHandler) Approve(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.settlementService.Approve(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// Pay godoc
// @ID           payCommissionSettlement
// @Summary      Pay a settlement
// @Description  Without paid_amount the settlement total is paid
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Param        request body commission.PaySettlementRequest false "Payment"
// @Success      200 {object} dto.Response{data=commission.Settlement}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/{id}/pay [post]
func (h *SettlementHandler) Pay(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req commission.PaySettlementRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	st, err := h.settlementService.Pay(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// Reopen godoc
// @ID           reopenCommissionSettlement
// @Summary      Reopen a settlement
// @Description  Releases the linked events back to approved
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.Settlement}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/{id}/reopen [post]
func (h *SettlementHandler) Reopen(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.settlementService.Reopen(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// Reject godoc
// @ID           rejectCommissionSettlement
// @Summary      Reject a closed settlement
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Param        request body commission.RejectSettlementRequest true "Reason"
// @Success      200 {object} dto.Response{data=commission.Settlement}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/{id}/reject [post]
func (h *SettlementHandler) Reject(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req commission.RejectSettlementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	st, err := h.settlementService.Reject(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, st)
}

// GetByID godoc
// @ID           getCommissionSettlement
// @Summary      Get a settlement with its events
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.SettlementDetail}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/{id} [get]
func (h *SettlementHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.settlementService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// List godoc
// @ID           listCommissionSettlements
// @Summary      List settlements
// @Tags         settlements
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        user_id query string false "User" format(uuid)
// @Param        period query string false "Period (YYYY-MM)"
// @Param        status query string false "Status"
// @Success      200 {object} dto.Response{data=[]commission.Settlement,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /commission-settlements [get]
func (h *SettlementHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f commission.SettlementListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.settlementService.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// Statement godoc
// @ID           downloadCommissionStatement
// @Summary      Download the settlement statement as PDF
// @Tags         settlements
// @Produce      application/pdf
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/{id}/statement [get]
func (h *SettlementHandler) Statement(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	file, err := h.settlementService.Statement(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename=\""+file.Filename+"\"")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// PublishStatement godoc
// @ID           publishCommissionStatement
// @Summary      Render and store the statement in the background
// @Tags         settlements
// @Param        id path string true "Settlement ID" format(uuid)
// @Success      202
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-settlements/{id}/statement/publish [post]
func (h *SettlementHandler) PublishStatement(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.settlementService.Get(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	if h.queue == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Background jobs are disabled")
		return
	}
	err := h.queue.EnqueueCommissionStatement(queue.CommissionStatementPayload{
		TenantID:     tenantID,
		SettlementID: id,
		RequestedBy:  userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
