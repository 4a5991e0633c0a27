package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/calibra/backend/internal/application/finance"
	domainFinance "github.com/calibra/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
)

// ReceivableHandler handles accounts receivable HTTP requests
type ReceivableHandler struct {
	BaseHandler
	receivableService *finance.ReceivableService
	paymentService    *finance.PaymentService
}

// NewReceivableHandler creates a new receivable handler
func NewReceivableHandler(receivableService *finance.ReceivableService, paymentService *finance.PaymentService) *ReceivableHandler {
	return &ReceivableHandler{
		receivableService: receivableService,
		paymentService:    paymentService,
	}
}

// Create godoc
// @ID           createReceivable
// @Summary      Create a receivable
// @Tags         accounts-receivable
// @Accept       json
// @Produce      json
// @Param        request body finance.CreateReceivableRequest true "Receivable"
// @Success      201 {object} dto.Response{data=domainFinance.AccountReceivable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable [post]
func (h *ReceivableHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req finance.CreateReceivableRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ar, err := h.receivableService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ar)
}

// Update godoc
// @ID           updateReceivable
// @Summary      Update an open receivable
// @Tags         accounts-receivable
// @Accept       json
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Param        request body finance.UpdateDocumentRequest true "Changes"
// @Success      200 {object} dto.Response{data=domainFinance.AccountReceivable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable/{id} [put]
func (h *ReceivableHandler) Update(c *gin.Context) {
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
	ar, err := h.receivableService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ar)
}

// GetByID godoc
// @ID           getReceivable
// @Summary      Get a receivable
// @Tags         accounts-receivable
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.AccountReceivable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable/{id} [get]
func (h *ReceivableHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ar, err := h.receivableService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ar)
}

// List godoc
// @ID           listReceivables
// @Summary      List receivables
// @Tags         accounts-receivable
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Description"
// @Param        status query string false "Status"
// @Param        customer_id query string false "Customer" format(uuid)
// @Param        work_order_id query string false "Work order" format(uuid)
// @Param        due_from query string false "Due from (YYYY-MM-DD)"
// @Param        due_to query string false "Due to (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]domainFinance.AccountReceivable,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /accounts-receivable [get]
func (h *ReceivableHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f finance.DocumentListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.receivableService.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// Pay godoc
// @ID           payReceivable
// @Summary      Record a payment on a receivable
// @Description  Partial payments keep the receivable open. Paying releases commissions proportionally.
// @Tags         accounts-receivable
// @Accept       json
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Param        request body finance.PayRequest true "Payment"
// @Success      201 {object} dto.Response{data=domainFinance.Payment}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable/{id}/pay [post]
func (h *ReceivableHandler) Pay(c *gin.Context) {
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
	payment, err := h.receivableService.Pay(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Payments godoc
// @ID           listReceivablePayments
// @Summary      Payments recorded on a receivable
// @Tags         accounts-receivable
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]domainFinance.Payment}
// @Security     BearerAuth
// @Router       /accounts-receivable/{id}/payments [get]
func (h *ReceivableHandler) Payments(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payments, err := h.paymentService.ForDocument(c.Request.Context(), tenantID, domainFinance.PayableTypeReceivable, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Cancel godoc
// @ID           cancelReceivable
// @Summary      Cancel a receivable
// @Tags         accounts-receivable
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.AccountReceivable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable/{id}/cancel [post]
func (h *ReceivableHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ar, err := h.receivableService.Cancel(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ar)
}

// Delete godoc
// @ID           deleteReceivable
// @Summary      Delete a receivable without payments
// @Tags         accounts-receivable
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable/{id} [delete]
func (h *ReceivableHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.receivableService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GenerateFromWorkOrder godoc
// @ID           generateReceivableFromWorkOrder
// @Summary      Create a receivable for a work order total
// @Tags         accounts-receivable
// @Accept       json
// @Produce      json
// @Param        request body finance.GenerateFromWorkOrderRequest true "Work order"
// @Success      201 {object} dto.Response{data=domainFinance.AccountReceivable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable/from-work-order [post]
func (h *ReceivableHandler) GenerateFromWorkOrder(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req finance.GenerateFromWorkOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ar, err := h.receivableService.GenerateFromWorkOrder(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ar)
}

// GenerateInstallments godoc
// @ID           generateReceivableInstallments
// @Summary      Split a work order total into monthly installments
// @Description  Rounding differences land on the last installment
// @Tags         accounts-receivable
// @Accept       json
// @Produce      json
// @Param        request body finance.GenerateInstallmentsRequest true "Installment plan"
// @Success      201 {object} dto.Response{data=[]domainFinance.AccountReceivable}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /accounts-receivable/installments [post]
func (h *ReceivableHandler) GenerateInstallments(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req finance.GenerateInstallmentsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rows, err := h.receivableService.GenerateInstallments(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rows)
}

// Summary godoc
// @ID           getReceivableSummary
// @Summary      Open, overdue and monthly receivable figures
// @Tags         accounts-receivable
// @Produce      json
// @Success      200 {object} dto.Response{data=domainFinance.Summary}
// @Security     BearerAuth
// @Router       /accounts-receivable/summary [get]
func (h *ReceivableHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	sum, err := h.receivableService.Summary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sum)
}

// Export godoc
// @ID           exportReceivables
// @Summary      Export receivables as CSV
// @Tags         accounts-receivable
// @Produce      text/csv
// @Param        status query string false "Status"
// @Param        customer_id query string false "Customer" format(uuid)
// @Param        due_from query string false "Due from (YYYY-MM-DD)"
// @Param        due_to query string false "Due to (YYYY-MM-DD)"
// @Success      200 {file} binary
// @Security     BearerAuth
// @Router       /accounts-receivable/export [get]
func (h *ReceivableHandler) Export(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f finance.DocumentListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	var buf bytes.Buffer
	if _, err := h.receivableService.Export(c.Request.Context(), tenantID, f, &buf); err != nil {
		h.HandleError(c, err)
		return
	}
	filename := "receivables-" + time.Now().Format("20060102") + ".csv"
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
