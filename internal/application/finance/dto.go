package finance

import (
	"time"

	"github.com/calibra/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateReceivableRequest represents a request to create a receivable
type CreateReceivableRequest struct {
	CustomerID    uuid.UUID       `json:"customer_id" binding:"required"`
	WorkOrderID   *uuid.UUID      `json:"work_order_id"`
	Description   string          `json:"description" binding:"required,max=255"`
	Amount        decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	DueDate       time.Time       `json:"due_date" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"max=50"`
	Notes         string          `json:"notes" binding:"max=1000"`
}

// UpdateDocumentRequest edits an open receivable or payable. Nil fields are left unchanged.
type UpdateDocumentRequest struct {
	Description   *string          `json:"description" binding:"omitempty,max=255"`
	Amount        *decimal.Decimal `json:"amount"`
	DueDate       *time.Time       `json:"due_date"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,max=50"`
	Notes         *string          `json:"notes" binding:"omitempty,max=1000"`
	SupplierName  *string          `json:"supplier_name" binding:"omitempty,max=255"`
	Category      *string          `json:"category" binding:"omitempty,max=100"`
}

// CreatePayableRequest represents a request to create a payable
type CreatePayableRequest struct {
	SupplierName  string          `json:"supplier_name" binding:"max=255"`
	Category      string          `json:"category" binding:"max=100"`
	Description   string          `json:"description" binding:"required,max=255"`
	Amount        decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	DueDate       time.Time       `json:"due_date" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"max=50"`
	Notes         string          `json:"notes" binding:"max=1000"`
}

// PayRequest records a payment against a receivable or payable
type PayRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	PaymentMethod string          `json:"payment_method" binding:"required,max=50"`
	PaymentDate   time.Time       `json:"payment_date" binding:"required"`
	Notes         string          `json:"notes" binding:"max=1000"`
}

// GenerateFromWorkOrderRequest creates one receivable for a work order total
type GenerateFromWorkOrderRequest struct {
	WorkOrderID   uuid.UUID `json:"work_order_id" binding:"required"`
	DueDate       time.Time `json:"due_date" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"max=50"`
}

// GenerateInstallmentsRequest splits a work order total into monthly receivables
type GenerateInstallmentsRequest struct {
	WorkOrderID   uuid.UUID `json:"work_order_id" binding:"required"`
	Installments  int       `json:"installments" binding:"required,min=2,max=48"`
	FirstDueDate  time.Time `json:"first_due_date" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"max=50"`
}

// DocumentListFilter holds query parameters for listing receivables and payables
type DocumentListFilter struct {
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
	Search      string     `form:"search"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir"`
	Status      string     `form:"status"`
	CustomerID  *uuid.UUID `form:"customer_id,parser=encoding.TextUnmarshaler"`
	WorkOrderID *uuid.UUID `form:"work_order_id,parser=encoding.TextUnmarshaler"`
	DueFrom     *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo       *time.Time `form:"due_to" time_format:"2006-01-02"`
}

// PaymentListFilter holds query parameters for listing payments
type PaymentListFilter struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	Search      string `form:"search"`
	PayableType string `form:"payable_type"`
}

// ReversalResult is the document state after a payment reversal
type ReversalResult struct {
	PayableType finance.PayableType    `json:"payable_type"`
	PayableID   uuid.UUID              `json:"payable_id"`
	AmountPaid  decimal.Decimal        `json:"amount_paid"`
	Status      finance.DocumentStatus `json:"status"`
}

// CreateInvoiceRequest represents a request to create an invoice.
// With a work order, customer and total default to the order's.
type CreateInvoiceRequest struct {
	CustomerID  *uuid.UUID       `json:"customer_id"`
	WorkOrderID *uuid.UUID       `json:"work_order_id"`
	Total       *decimal.Decimal `json:"total"`
	DueDate     *time.Time       `json:"due_date"`
	Observation string           `json:"observation" binding:"max=2000"`
}

// UpdateInvoiceRequest edits a non-cancelled invoice
type UpdateInvoiceRequest struct {
	Total       decimal.Decimal `json:"total"`
	DueDate     *time.Time      `json:"due_date"`
	Observation string          `json:"observation" binding:"max=2000"`
}

// InvoiceStatusRequest moves an invoice to another status
type InvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft issued sent cancelled"`
}

// CreateExpenseRequest represents a request to record an expense
type CreateExpenseRequest struct {
	WorkOrderID     *uuid.UUID      `json:"work_order_id"`
	UserID          *uuid.UUID      `json:"user_id"`
	Description     string          `json:"description" binding:"required,max=255"`
	Category        string          `json:"category" binding:"max=100"`
	Amount          decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	ExpenseDate     time.Time       `json:"expense_date" binding:"required"`
	AffectsNetValue bool            `json:"affects_net_value"`
}

// RejectExpenseRequest rejects a pending expense
type RejectExpenseRequest struct {
	Reason string `json:"rejection_reason" binding:"max=1000"`
}

// ExpenseListFilter holds query parameters for listing expenses
type ExpenseListFilter struct {
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size"`
	Search      string     `form:"search"`
	WorkOrderID *uuid.UUID `form:"work_order_id,parser=encoding.TextUnmarshaler"`
}
