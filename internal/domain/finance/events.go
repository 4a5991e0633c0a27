package finance

import (
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeReceivablePaymentRecorded is published after a receivable payment is stored
const EventTypeReceivablePaymentRecorded = "ReceivablePaymentRecorded"

// ReceivablePaymentRecordedEvent carries what commission release needs from a payment
type ReceivablePaymentRecordedEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID       `json:"receivable_id"`
	PaymentID    uuid.UUID       `json:"payment_id"`
	WorkOrderID  *uuid.UUID      `json:"work_order_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Status       DocumentStatus  `json:"status"`
}

// NewReceivablePaymentRecordedEvent creates the event
func NewReceivablePaymentRecordedEvent(ar *AccountReceivable, p *Payment) *ReceivablePaymentRecordedEvent {
	return &ReceivablePaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceivablePaymentRecorded, "AccountReceivable", ar.ID, ar.TenantID),
		ReceivableID:    ar.ID,
		PaymentID:       p.ID,
		WorkOrderID:     ar.WorkOrderID,
		Amount:          p.Amount,
		Status:          ar.Status,
	}
}
