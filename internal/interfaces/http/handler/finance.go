package handler

import (
	"github.com/calibra/backend/internal/application/finance"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// FinanceHandler handles payments, invoices and expenses
type FinanceHandler struct {
	BaseHandler
	paymentService *finance.PaymentService
	invoiceService *finance.InvoiceService
	expenseService *finance.ExpenseService
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(
	paymentService *finance.PaymentService,
	invoiceService *finance.InvoiceService,
	expenseService *finance.ExpenseService,
) *FinanceHandler {
	return &FinanceHandler{
		paymentService: paymentService,
		invoiceService: invoiceService,
		expenseService: expenseService,
	}
}

// ListPayments godoc
// @ID           listPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        payable_type query string false "receivable or payable"
// @Success      200 {object} dto.Response{data=[]domainFinance.Payment,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /payments [get]
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f finance.PaymentListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.paymentService.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// GetPayment godoc
// @ID           getPayment
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.Payment}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *FinanceHandler) GetPayment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// ReversePayment godoc
// @ID           reversePayment
// @Summary      Reverse a payment
// @Description  Removes the payment and restores the document balance and status
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=finance.ReversalResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [delete]
func (h *FinanceHandler) ReversePayment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.paymentService.Reverse(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CreateInvoice godoc
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  With a work order, customer and total default to the order's
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body finance.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=domainFinance.Invoice}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req finance.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// UpdateInvoice godoc
// @ID           updateInvoice
// @Summary      Update an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body finance.UpdateInvoiceRequest true "Changes"
// @Success      200 {object} dto.Response{data=domainFinance.Invoice}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *FinanceHandler) UpdateInvoice(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req finance.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// UpdateInvoiceStatus godoc
// @ID           updateInvoiceStatus
// @Summary      Move an invoice to another status
// @Description  Issuing an invoice for a delivered work order marks the order invoiced
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body finance.InvoiceStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=domainFinance.Invoice}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/status [put]
func (h *FinanceHandler) UpdateInvoiceStatus(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req finance.InvoiceStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.UpdateStatus(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// DeleteInvoice godoc
// @ID           deleteInvoice
// @Summary      Delete an invoice
// @Tags         invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *FinanceHandler) DeleteInvoice(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.invoiceService.Delete(c.Request.Context(), tenantID, userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetInvoice godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.Invoice}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *FinanceHandler) GetInvoice(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoiceService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// ListInvoices godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Number"
// @Success      200 {object} dto.Response{data=[]domainFinance.Invoice,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *FinanceHandler) ListInvoices(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.invoiceService.List(c.Request.Context(), tenantID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// CreateExpense godoc
// @ID           createExpense
// @Summary      Record an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body finance.CreateExpenseRequest true "Expense"
// @Success      201 {object} dto.Response{data=domainFinance.Expense}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses [post]
func (h *FinanceHandler) CreateExpense(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req finance.CreateExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	exp, err := h.expenseService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, exp)
}

// ApproveExpense godoc
// @ID           approveExpense
// @Summary      Approve a pending expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.Expense}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id}/approve [post]
func (h *FinanceHandler) ApproveExpense(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	exp, err := h.expenseService.Approve(c.Request.Context(), tenantID, userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exp)
}

// RejectExpense godoc
// @ID           rejectExpense
// @Summary      Reject a pending expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body finance.RejectExpenseRequest false "Reason"
// @Success      200 {object} dto.Response{data=domainFinance.Expense}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id}/reject [post]
func (h *FinanceHandler) RejectExpense(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req finance.RejectExpenseRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	exp, err := h.expenseService.Reject(c.Request.Context(), tenantID, userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exp)
}

// GetExpense godoc
// @ID           getExpense
// @Summary      Get an expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFinance.Expense}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id} [get]
func (h *FinanceHandler) GetExpense(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	exp, err := h.expenseService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, exp)
}

// ListExpenses godoc
// @ID           listExpenses
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        work_order_id query string false "Work order" format(uuid)
// @Success      200 {object} dto.Response{data=[]domainFinance.Expense,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /expenses [get]
func (h *FinanceHandler) ListExpenses(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f finance.ExpenseListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.expenseService.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// DeleteExpense godoc
// @ID           deleteExpense
// @Summary      Delete an expense
// @Tags         expenses
// @Param        id path string true "Expense ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id} [delete]
func (h *FinanceHandler) DeleteExpense(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.expenseService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
