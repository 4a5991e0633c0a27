package finance

import (
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus is the approval state of an expense
type ExpenseStatus string

const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

// Expense is a cost incurred by the tenant, optionally on a work order.
// Approved expenses flagged AffectsNetValue reduce net-based commissions.
type Expense struct {
	shared.TenantAggregateRoot
	WorkOrderID     *uuid.UUID      `json:"work_order_id,omitempty"`
	UserID          *uuid.UUID      `json:"user_id,omitempty"`
	Description     string          `json:"description"`
	Category        string          `json:"category,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	ExpenseDate     time.Time       `json:"expense_date"`
	Status          ExpenseStatus   `json:"status"`
	AffectsNetValue bool            `json:"affects_net_value"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// NewExpense creates a pending expense
func NewExpense(tenantID uuid.UUID, description string, amount decimal.Decimal, date time.Time, affectsNet bool) (*Expense, error) {
	if description == "" {
		return nil, shared.NewValidationError("description", "Description is required")
	}
	if amount.LessThan(valueobject.Cent()) {
		return nil, shared.NewValidationError("amount", "Amount must be at least 0.01")
	}
	return &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Description:         description,
		Amount:              valueobject.Round2(amount),
		ExpenseDate:         date,
		Status:              ExpenseStatusPending,
		AffectsNetValue:     affectsNet,
	}, nil
}

// Approve approves a pending expense
func (e *Expense) Approve(by uuid.UUID) error {
	if e.Status != ExpenseStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, "Only pending expenses can be approved")
	}
	e.Status = ExpenseStatusApproved
	e.ApprovedBy = &by
	e.Touch()
	return nil
}

// Reject rejects a pending expense
func (e *Expense) Reject(by uuid.UUID, reason string) error {
	if e.Status != ExpenseStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, "Only pending expenses can be rejected")
	}
	e.Status = ExpenseStatusRejected
	e.ApprovedBy = &by
	e.RejectionReason = reason
	e.Touch()
	return nil
}

// AffectsNet reports whether the expense reduces net-based commissions
func (e *Expense) AffectsNet() bool {
	return e.Status == ExpenseStatusApproved && e.AffectsNetValue
}
