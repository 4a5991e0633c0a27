package workorder

import (
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names published by the work order aggregate
const (
	EventTypeStarted   = "WorkOrderStarted"
	EventTypeCompleted = "WorkOrderCompleted"
	EventTypeDelivered = "WorkOrderDelivered"
	EventTypeInvoiced  = "WorkOrderInvoiced"
	EventTypeCancelled = "WorkOrderCancelled"
)

const aggregateType = "WorkOrder"

// StatusChangedEvent is raised on every significant work order transition.
// The concrete type name is carried by the embedded BaseDomainEvent.
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	WorkOrderID uuid.UUID       `json:"work_order_id"`
	Number      string          `json:"number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	FromStatus  Status          `json:"from_status"`
	ToStatus    Status          `json:"to_status"`
	Total       decimal.Decimal `json:"total"`
	ChangedBy   *uuid.UUID      `json:"changed_by,omitempty"`
}

func newStatusChangedEvent(eventType string, wo *WorkOrder, from Status, userID *uuid.UUID) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateType, wo.ID, wo.TenantID),
		WorkOrderID:     wo.ID,
		Number:          wo.Number,
		CustomerID:      wo.CustomerID,
		FromStatus:      from,
		ToStatus:        wo.Status,
		Total:           wo.Total,
		ChangedBy:       userID,
	}
}

// eventTypeFor maps a target status to the event it raises, if any
func eventTypeFor(to Status) (string, bool) {
	switch to {
	case StatusInProgress:
		return EventTypeStarted, true
	case StatusCompleted:
		return EventTypeCompleted, true
	case StatusDelivered:
		return EventTypeDelivered, true
	case StatusInvoiced:
		return EventTypeInvoiced, true
	case StatusCancelled:
		return EventTypeCancelled, true
	}
	return "", false
}
