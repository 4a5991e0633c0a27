package finance

import (
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountReceivable is money owed to the tenant by a customer
type AccountReceivable struct {
	shared.TenantAggregateRoot
	Ledger
	CustomerID    uuid.UUID  `json:"customer_id"`
	WorkOrderID   *uuid.UUID `json:"work_order_id,omitempty"`
	Description   string     `json:"description"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Installment   int        `json:"installment,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	// BillingMarker ties the receivable to one contract month. It is set once
	// by recurring billing and never edited.
	BillingMarker *string `json:"billing_marker,omitempty"`
}

// NewAccountReceivable creates a pending receivable
func NewAccountReceivable(tenantID, customerID uuid.UUID, description string, amount decimal.Decimal, dueDate time.Time) (*AccountReceivable, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer is required")
	}
	if description == "" {
		return nil, shared.NewValidationError("description", "Description is required")
	}
	ledger, err := newLedger(amount, dueDate)
	if err != nil {
		return nil, err
	}
	return &AccountReceivable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Ledger:              ledger,
		CustomerID:          customerID,
		Description:         description,
	}, nil
}

// Pay records a payment dated date. The status is re-derived against now,
// so a post-dated or backdated payment date never moves the overdue check.
func (ar *AccountReceivable) Pay(amount decimal.Decimal, method string, date time.Time, receivedBy *uuid.UUID, notes string, now time.Time) (*Payment, error) {
	payment, err := NewPayment(ar.TenantID, PayableTypeReceivable, ar.ID, amount, method, date, receivedBy, notes)
	if err != nil {
		return nil, err
	}
	if err := ar.ApplyPayment(payment.Amount, now); err != nil {
		return nil, err
	}
	ar.Touch()
	ar.AddDomainEvent(NewReceivablePaymentRecordedEvent(ar, payment))
	return payment, nil
}

// Cancel cancels the receivable
func (ar *AccountReceivable) Cancel() error {
	if err := ar.Ledger.Cancel(); err != nil {
		return err
	}
	ar.Touch()
	return nil
}
