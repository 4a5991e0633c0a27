package customer

import (
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	AggregateTypeCustomer = "Customer"

	EventTypeCustomerCreated = "CustomerCreated"
)

// CreatedEvent is raised when a customer is registered
type CreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Document   string    `json:"document,omitempty"`
}

// NewCreatedEvent creates a CustomerCreated event
func NewCreatedEvent(c *Customer) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, c.ID, c.TenantID),
		CustomerID:      c.ID,
		Name:            c.Name,
		Document:        c.Document,
	}
}
