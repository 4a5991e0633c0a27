package contract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateContractRequest represents a request to create a recurring contract
type CreateContractRequest struct {
	CustomerID   uuid.UUID       `json:"customer_id" binding:"required"`
	Name         string          `json:"name" binding:"required,max=255"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
	BillingDay   int             `json:"billing_day" binding:"required,min=1,max=31"`
	StartsAt     time.Time       `json:"starts_at" binding:"required"`
	EndsAt       *time.Time      `json:"ends_at"`
}

// UpdateContractRequest edits a contract. Nil fields are left unchanged.
type UpdateContractRequest struct {
	Name         *string          `json:"name" binding:"omitempty,max=255"`
	MonthlyValue *decimal.Decimal `json:"monthly_value"`
	BillingDay   *int             `json:"billing_day" binding:"omitempty,min=1,max=31"`
	EndsAt       *time.Time       `json:"ends_at"`
	Active       *bool            `json:"active"`
}

// BillingResult reports one monthly billing run
type BillingResult struct {
	TenantID uuid.UUID   `json:"tenant_id"`
	Month    string      `json:"month"`
	Created  int         `json:"created"`
	Skipped  int         `json:"skipped"`
	IDs      []uuid.UUID `json:"receivable_ids,omitempty"`
}
