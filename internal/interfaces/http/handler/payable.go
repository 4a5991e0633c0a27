package handler

import (
	"github.com/calibra/backend/internal/application/finance"
	domainFinance "github.com/calibra/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
)

// PayableHandler handles accounts payable HTTP requests
type PayableHandler struct {
	BaseHandler
	payableService *finance.PayableService
	paymentService *finance.PaymentService
}

// NewPayableHandler creates a new payable handler
func NewPayableHandler(payableService *finance.PayableService, paymentService *finance.PaymentService) *PayableHandler {
	return &PayableHandler{
		payableService: payableService,
		paymentService: paymentService,
	}
}

// Create godoc
// @ID           createPayable
// @Summary      Create a payable
// @Tags         accounts-payable
// @Accept       json
// @Produce      json
// @Param        request body finance.CreatePayableRequest true "Payable"
// @Success      201 {object} dto.Response{data=domainFinance.AccountPayable}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-payable [post]
func (h *PayableHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req finance.CreatePayableRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ap, err := h.payableService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ap)
}

// Update godoc
// @ID           updatePayable
// @Summary      Update an open payable
// @Tags         accounts-payable
// @Accept       json
// @Produce      json
// @Param        id path string true "Payable ID" format(uuid)
// @Param        request body finance.UpdateDocumentRequest true "Changes"
// @Success      200 {object} dto.Response{data=domainFinance.AccountPayable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-payable/{id} [put]
func (h *PayableHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req finance.UpdateDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ap, err := h.payableService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ap)
}

// GetByID godoc
// @ID           getPayable
// @Summary      Get a payable
// @Tags         accounts-payable
// @Produce      json
// @Param        id path string true "Payable ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.AccountPayable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-payable/{id} [get]
func (h *PayableHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ap, err := h.payableService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ap)
}

// List godoc
// @ID           listPayables
// @Summary      List payables
// @Tags         accounts-payable
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Description or supplier"
// @Param        status query string false "Status"
// @Param        due_from query string false "Due from (YYYY-MM-DD)"
// @Param        due_to query string false "Due to (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]domainFinance.AccountPayable,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /accounts-payable [get]
func (h *PayableHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f finance.DocumentListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.payableService.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// Pay godoc
// @ID           payPayable
// @Summary      Record a payment on a payable
// @Tags         accounts-payable
// @Accept       json
// @Produce      json
// @Param        id path string true "Payable ID" format(uuid)
// @Param        request body finance.PayRequest true "Payment"
// @Success      201 {object} dto.Response{data=domainFinance.Payment}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-payable/{id}/pay [post]
func (h *PayableHandler) Pay(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req finance.PayRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := h.payableService.Pay(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Payments godoc
// @ID           listPayablePayments
// @Summary      Payments recorded on a payable
// @Tags         accounts-payable
// @Produce      json
// @Param        id path string true "Payable ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]domainFinance.Payment}
// @Security     BearerAuth
// @Router       /accounts-payable/{id}/payments [get]
func (h *PayableHandler) Payments(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payments, err := h.paymentService.ForDocument(c.Request.Context(), tenantID, domainFinance.PayableTypePayable, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Cancel godoc
// @ID           cancelPayable
// @Summary      Cancel a payable
// @Tags         accounts-payable
// @Produce      json
// @Param        id path string true "Payable ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.AccountPayable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-payable/{id}/cancel [post]
func (h *PayableHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ap, err := h.payableService.Cancel(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ap)
}

// Delete godoc
// @ID           deletePayable
// @Summary      Delete a payable without payments
// @Tags         accounts-payable
// @Param        id path string true "Payable ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-payable/{id} [delete]
func (h *PayableHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.payableService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Summary godoc
// @ID           getPayableSummary
// @Summary      Open, overdue and monthly payable figures
// @Tags         accounts-payable
// @Produce      json
// @Success      200 {object} dto.Response{data=domainFinance.Summary}
// @Security     BearerAuth
// @Router       /accounts-payable/summary [get]
func (h *PayableHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	sum, err := h.payableService.Summary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sum)
}
