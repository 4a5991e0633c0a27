package finance

import (
	"context"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentFilter defines filtering options for receivable and payable queries
type DocumentFilter struct {
	shared.Filter
	Status      *DocumentStatus
	CustomerID  *uuid.UUID
	WorkOrderID *uuid.UUID
	DueFrom     *time.Time
	DueTo       *time.Time
}

// Summary aggregates open and settled balances of a ledger
type Summary struct {
	Pending         decimal.Decimal `json:"pending"`
	Overdue         decimal.Decimal `json:"overdue"`
	PaidThisMonth   decimal.Decimal `json:"paid_this_month"`
	BilledThisMonth decimal.Decimal `json:"billed_this_month"`
	TotalOpen       decimal.Decimal `json:"total_open"`
}

// MatchCandidateFilter selects open documents for bank reconciliation.
// A zero due window means any due date.
type MatchCandidateFilter struct {
	Amount    decimal.Decimal
	Tolerance decimal.Decimal
	DueFrom   time.Time
	DueTo     time.Time
	Limit     int
}

// ReceivableRepository persists receivables
type ReceivableRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountReceivable, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]AccountReceivable, int64, error)
	FindByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]AccountReceivable, error)
	CountByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error)
	// CreateBilled inserts a receivable carrying a billing marker. It reports
	// false, without error, when a live receivable of the tenant already holds the marker.
	CreateBilled(ctx context.Context, ar *AccountReceivable) (bool, error)
	// FindMatchCandidates returns pending or partial receivables near an amount and due date
	FindMatchCandidates(ctx context.Context, tenantID uuid.UUID, filter MatchCandidateFilter) ([]AccountReceivable, error)
	Summary(ctx context.Context, tenantID uuid.UUID, now time.Time) (Summary, error)
	Save(ctx context.Context, ar *AccountReceivable) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// PayableRepository persists payables
type PayableRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountPayable, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]AccountPayable, int64, error)
	FindMatchCandidates(ctx context.Context, tenantID uuid.UUID, filter MatchCandidateFilter) ([]AccountPayable, error)
	Summary(ctx context.Context, tenantID uuid.UUID, now time.Time) (Summary, error)
	Save(ctx context.Context, ap *AccountPayable) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByDocument(ctx context.Context, tenantID uuid.UUID, payableType PayableType, payableID uuid.UUID) ([]Payment, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, payableType *PayableType, filter shared.Filter) ([]Payment, int64, error)
	SumByDocument(ctx context.Context, tenantID uuid.UUID, payableType PayableType, payableID uuid.UUID) (decimal.Decimal, error)
	CountByDocument(ctx context.Context, tenantID uuid.UUID, payableType PayableType, payableID uuid.UUID) (int64, error)
	Save(ctx context.Context, p *Payment) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, int64, error)
	CountActiveByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error)
	CountByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error)
	NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
	Save(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ExpenseRepository persists expenses
type ExpenseRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, workOrderID *uuid.UUID, filter shared.Filter) ([]Expense, int64, error)
	// SumNetAffecting sums approved expenses flagged affects_net_value for a work order
	SumNetAffecting(ctx context.Context, tenantID, workOrderID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
