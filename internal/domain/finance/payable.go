package finance

import (
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountPayable is money the tenant owes to a supplier
type AccountPayable struct {
	shared.TenantAggregateRoot
	Ledger
	SupplierName  string `json:"supplier_name"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// NewAccountPayable creates a pending payable
func NewAccountPayable(tenantID uuid.UUID, supplierName, description string, amount decimal.Decimal, dueDate time.Time) (*AccountPayable, error) {
	if description == "" {
		return nil, shared.NewValidationError("description", "Description is required")
	}
	ledger, err := newLedger(amount, dueDate)
	if err != nil {
		return nil, err
	}
	return &AccountPayable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Ledger:              ledger,
		SupplierName:        supplierName,
		Description:         description,
	}, nil
}

// Pay records a payment dated date. The status is re-derived against now,
// so a post-dated or backdated payment date never moves the overdue check.
func (ap *AccountPayable) Pay(amount decimal.Decimal, method string, date time.Time, paidBy *uuid.UUID, notes string, now time.Time) (*Payment, error) {
	payment, err := NewPayment(ap.TenantID, PayableTypePayable, ap.ID, amount, method, date, paidBy, notes)
	if err != nil {
		return nil, err
	}
	if err := ap.ApplyPayment(payment.Amount, now); err != nil {
		return nil, err
	}
	ap.Touch()
	return payment, nil
}

// Cancel cancels the payable
func (ap *AccountPayable) Cancel() error {
	if err := ap.Ledger.Cancel(); err != nil {
		return err
	}
	ap.Touch()
	return nil
}
