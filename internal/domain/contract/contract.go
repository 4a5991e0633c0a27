package contract

import (
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringContract bills a customer a fixed amount every month
type RecurringContract struct {
	shared.TenantAggregateRoot
	CustomerID   uuid.UUID       `json:"customer_id"`
	Name         string          `json:"name"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
	BillingDay   int             `json:"billing_day"`
	Active       bool            `json:"active"`
	StartsAt     time.Time       `json:"starts_at"`
	EndsAt       *time.Time      `json:"ends_at,omitempty"`
}

// NewRecurringContract creates an active contract
func NewRecurringContract(tenantID, customerID uuid.UUID, name string, monthly decimal.Decimal, billingDay int, startsAt time.Time) (*RecurringContract, error) {
	c := &RecurringContract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		Name:                name,
		MonthlyValue:        valueobject.Round2(monthly),
		BillingDay:          billingDay,
		Active:              true,
		StartsAt:            startsAt,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the contract invariants
func (c *RecurringContract) Validate() error {
	switch {
	case c.CustomerID == uuid.Nil:
		return shared.NewValidationError("customer_id", "Customer is required")
	case c.Name == "":
		return shared.NewValidationError("name", "Name is required")
	case c.MonthlyValue.IsNegative():
		return shared.NewValidationError("monthly_value", "Monthly value cannot be negative")
	case c.BillingDay < 1 || c.BillingDay > 31:
		return shared.NewValidationError("billing_day", "Billing day must be between 1 and 31")
	case c.EndsAt != nil && c.EndsAt.Before(c.StartsAt):
		return shared.NewValidationError("ends_at", "End date must be after start date")
	}
	return nil
}

// IsBillableIn reports whether the contract produces a receivable for the month
func (c *RecurringContract) IsBillableIn(month valueobject.Period, loc *time.Location) bool {
	if !c.Active || !c.MonthlyValue.IsPositive() {
		return false
	}
	start, end := month.Bounds(loc)
	if !c.StartsAt.Before(end) {
		return false
	}
	return c.EndsAt == nil || !c.EndsAt.Before(start)
}

// BillingMarker is the receivable notes marker that keeps monthly billing idempotent
func (c *RecurringContract) BillingMarker(month valueobject.Period) string {
	return fmt.Sprintf("recurring_contract:%s:%s", c.ID, month)
}

// BillingDescription is the receivable description for the contract
func (c *RecurringContract) BillingDescription() string {
	return "Contrato Recorrente: " + c.Name
}

// DueDate is the billing day of the month, clamped to the month length
func (c *RecurringContract) DueDate(month valueobject.Period, loc *time.Location) time.Time {
	return month.Day(c.BillingDay, loc)
}

// Deactivate stops future billing
func (c *RecurringContract) Deactivate() {
	c.Active = false
	c.Touch()
}
