package finance

import (
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableType identifies which document a payment settles
type PayableType string

const (
	PayableTypeReceivable PayableType = "receivable"
	PayableTypePayable    PayableType = "payable"
)

// Payment records money received or paid against a document
type Payment struct {
	shared.BaseEntity
	TenantID      uuid.UUID       `json:"tenant_id"`
	PayableType   PayableType     `json:"payable_type"`
	PayableID     uuid.UUID       `json:"payable_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   time.Time       `json:"payment_date"`
	ReceivedBy    *uuid.UUID      `json:"received_by,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// NewPayment validates and creates a payment record
func NewPayment(tenantID uuid.UUID, payableType PayableType, payableID uuid.UUID, amount decimal.Decimal, method string, date time.Time, receivedBy *uuid.UUID, notes string) (*Payment, error) {
	if amount.LessThan(valueobject.Cent()) {
		return nil, shared.NewValidationError("amount", "Amount must be at least 0.01")
	}
	if method == "" {
		return nil, shared.NewValidationError("payment_method", "Payment method is required")
	}
	if date.IsZero() {
		return nil, shared.NewValidationError("payment_date", "Payment date is required")
	}
	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		PayableType:   payableType,
		PayableID:     payableID,
		Amount:        valueobject.Round2(amount),
		PaymentMethod: method,
		PaymentDate:   date,
		ReceivedBy:    receivedBy,
		Notes:         notes,
	}, nil
}
