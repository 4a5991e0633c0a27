package handler

import (
	"github.com/calibra/backend/internal/application/workorder"
	"github.com/gin-gonic/gin"
)

// WorkOrderHandler handles work order HTTP requests
type WorkOrderHandler struct {
	BaseHandler
	workOrderService *workorder.Service
}

// NewWorkOrderHandler creates a new work order handler
func NewWorkOrderHandler(workOrderService *workorder.Service) *WorkOrderHandler {
	return &WorkOrderHandler{
		workOrderService: workOrderService,
	}
}

// Create godoc
// @ID           createWorkOrder
// @Summary      Open a work order
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Param        request body workorder.CreateWorkOrderRequest true "Work order"
// @Success      201 {object} dto.Response{data=workorder.WorkOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders [post]
func (h *WorkOrderHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req workorder.CreateWorkOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.workOrderService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Update godoc
// @ID           updateWorkOrder
// @Summary      Update a work order
// @Description  Only open work orders can be edited
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Param        request body workorder.UpdateWorkOrderRequest true "Changes"
// @Success      200 {object} dto.Response{data=workorder.WorkOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders/{id} [put]
func (h *WorkOrderHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req workorder.UpdateWorkOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.workOrderService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByID godoc
// @ID           getWorkOrderById
// @Summary      Get a work order
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=workorder.WorkOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders/{id} [get]
func (h *WorkOrderHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.workOrderService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @ID           listWorkOrders
// @Summary      List work orders
// @Tags         work-orders
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Number or description"
// @Param        status query string false "Status"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        assigned_to query string false "Assignee ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]workorder.WorkOrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /work-orders [get]
func (h *WorkOrderHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f workorder.ListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.workOrderService.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// ChangeStatus godoc
// @ID           changeWorkOrderStatus
// @Summary      Move a work order to another status
// @Description  Invalid transitions answer 422 with the allowed target statuses
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Param        request body workorder.ChangeStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=workorder.WorkOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders/{id}/status [post]
func (h *WorkOrderHandler) ChangeStatus(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req workorder.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.workOrderService.ChangeStatus(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Reopen godoc
// @ID           reopenWorkOrder
// @Summary      Reopen a cancelled work order
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=workorder.WorkOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders/{id}/reopen [post]
func (h *WorkOrderHandler) Reopen(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.workOrderService.Reopen(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @ID           deleteWorkOrder
// @Summary      Delete a work order
// @Tags         work-orders
// @Param        id path string true "Work order ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders/{id} [delete]
func (h *WorkOrderHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.workOrderService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// History godoc
// @ID           getWorkOrderHistory
// @Summary      Status history of a work order
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]workorder.StatusChange}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders/{id}/history [get]
func (h *WorkOrderHandler) History(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.workOrderService.History(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CommissionEvents godoc
// @ID           getWorkOrderCommissionEvents
// @Summary      Commission events generated by a work order
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]commission.CommissionEvent}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /work-orders/{id}/commission-events [get]
func (h *WorkOrderHandler) CommissionEvents(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.workOrderService.CommissionEvents(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
