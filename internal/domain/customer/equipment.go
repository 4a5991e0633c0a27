package customer

import (
	"strings"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Equipment is an instrument owned by a customer and calibrated by the tenant
type Equipment struct {
	shared.TenantAggregateRoot
	CustomerID   uuid.UUID `json:"customer_id"`
	SerialNumber string    `json:"serial_number"`
	Model        string    `json:"model,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Description  string    `json:"description,omitempty"`
	Active       bool      `json:"active"`
}

// NewEquipment creates an active equipment for a customer
func NewEquipment(tenantID, customerID uuid.UUID, serial, model, manufacturer string) (*Equipment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer is required")
	}
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, shared.NewValidationError("serial_number", "Serial number is required")
	}
	return &Equipment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		SerialNumber:        serial,
		Model:               strings.TrimSpace(model),
		Manufacturer:        strings.TrimSpace(manufacturer),
		Active:              true,
	}, nil
}
