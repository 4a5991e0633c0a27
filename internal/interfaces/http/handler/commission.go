package handler

import (
	"github.com/calibra/backend/internal/application/commission"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CommissionHandler handles commission rules, campaigns and events
type CommissionHandler struct {
	BaseHandler
	commissionService *commission.Service
}

// NewCommissionHandler creates a new commission handler
func NewCommissionHandler(commissionService *commission.Service) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
	}
}

// CreateRule godoc
// @ID           createCommissionRule
// @Summary      Create a commission rule
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body commission.CreateRuleRequest true "Rule"
// @Success      201 {object} dto.Response{data=commission.Rule}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-rules [post]
func (h *CommissionHandler) CreateRule(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req commission.CreateRuleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rule, err := h.commissionService.CreateRule(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rule)
}

// UpdateRule godoc
// @ID           updateCommissionRule
// @Summary      Update a commission rule
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Param        request body commission.UpdateRuleRequest true "Changes"
// @Success      200 {object} dto.Response{data=commission.Rule}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-rules/{id} [put]
func (h *CommissionHandler) UpdateRule(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req commission.UpdateRuleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rule, err := h.commissionService.UpdateRule(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// GetRule godoc
// @ID           getCommissionRule
// @Summary      Get a commission rule
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.Rule}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-rules/{id} [get]
func (h *CommissionHandler) GetRule(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	rule, err := h.commissionService.GetRule(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// ListRules godoc
// @ID           listCommissionRules
// @Summary      List commission rules
// @Tags         commissions
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]commission.Rule,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /commission-rules [get]
func (h *CommissionHandler) ListRules(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.commissionService.ListRules(c.Request.Context(), tenantID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// DeleteRule godoc
// @ID           deleteCommissionRule
// @Summary      Delete a commission rule
// @Tags         commissions
// @Param        id path string true "Rule ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-rules/{id} [delete]
func (h *CommissionHandler) DeleteRule(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.commissionService.DeleteRule(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateCampaign godoc
// @ID           createCommissionCampaign
// @Summary      Create a commission campaign
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body commission.CreateCampaignRequest true "Campaign"
// @Success      201 {object} dto.Response{data=commission.Campaign}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-campaigns [post]
func (h *CommissionHandler) CreateCampaign(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req commission.CreateCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	campaign, err := h.commissionService.CreateCampaign(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, campaign)
}

// UpdateCampaign godoc
// @ID           updateCommissionCampaign
// @Summary      Update a commission campaign
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        request body commission.UpdateCampaignRequest true "Changes"
// @Success      200 {object} dto.Response{data=commission.Campaign}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-campaigns/{id} [put]
func (h *CommissionHandler) UpdateCampaign(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req commission.UpdateCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	campaign, err := h.commissionService.UpdateCampaign(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// GetCampaign godoc
// @ID           getCommissionCampaign
// @Summary      Get a commission campaign
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.Campaign}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-campaigns/{id} [get]
func (h *CommissionHandler) GetCampaign(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	campaign, err := h.commissionService.GetCampaign(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// ListCampaigns godoc
// @ID           listCommissionCampaigns
// @Summary      List commission campaigns
// @Tags         commissions
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]commission.Campaign,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /commission-campaigns [get]
func (h *CommissionHandler) ListCampaigns(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.commissionService.ListCampaigns(c.Request.Context(), tenantID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// DeleteCampaign godoc
// @ID           deleteCommissionCampaign
// @Summary      Delete a commission campaign
// @Tags         commissions
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-campaigns/{id} [delete]
func (h *CommissionHandler) DeleteCampaign(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.commissionService.DeleteCampaign(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Simulate godoc
// @ID           simulateCommissions
// @Summary      Dry-run the commission evaluator for a work order
// @Description  Nothing is persisted
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body commission.GenerateRequest true "Work order and trigger"
// @Success      200 {object} dto.Response{data=commission.SimulationResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commissions/simulate [post]
func (h *CommissionHandler) Simulate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req commission.GenerateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.commissionService.Simulate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListEvents godoc
// @ID           listCommissionEvents
// @Summary      List commission events
// @Tags         commissions
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        user_id query string false "Beneficiary" format(uuid)
// @Param        work_order_id query string false "Work order" format(uuid)
// @Param        settlement_id query string false "Settlement" format(uuid)
// @Param        status query string false "Status"
// @Success      200 {object} dto.Response{data=[]commission.CommissionEvent,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /commission-events [get]
func (h *CommissionHandler) ListEvents(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f commission.EventListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.commissionService.ListEvents(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// GetEvent godoc
// @ID           getCommissionEvent
// @Summary      Get a commission event
// @Tags         commissions
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=commission.CommissionEvent}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-events/{id} [get]
func (h *CommissionHandler) GetEvent(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	event, err := h.commissionService.GetEvent(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// UpdateEventStatus godoc
// @ID           updateCommissionEventStatus
// @Summary      Move a commission event to another status
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Param        request body commission.UpdateStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=commission.CommissionEvent}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-events/{id}/status [put]
func (h *CommissionHandler) UpdateEventStatus(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req commission.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	event, err := h.commissionService.UpdateStatus(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, event)
}

// BatchUpdateEventStatus godoc
// @ID           batchUpdateCommissionEventStatus
// @Summary      Move many commission events to a status
// @Description  Events that cannot move are skipped and reported
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Param        request body commission.BatchUpdateStatusRequest true "Events and target status"
// @Success      200 {object} dto.Response{data=commission.BatchResult}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /commission-events/batch-status [post]
func (h *CommissionHandler) BatchUpdateEventStatus(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req commission.BatchUpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.commissionService.BatchUpdateStatus(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Summary godoc
// @ID           getCommissionSummary
// @Summary      Commission totals of a user
// @Description  Defaults to the authenticated user
// @Tags         commissions
// @Produce      json
// @Param        user_id query string false "User" format(uuid)
// @Success      200 {object} dto.Response{data=commission.UserTotals}
// @Security     BearerAuth
// @Router       /commissions/summary [get]
func (h *CommissionHandler) Summary(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid user_id")
			return
		}
		userID = id
	}
	totals, err := h.commissionService.Summary(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}
