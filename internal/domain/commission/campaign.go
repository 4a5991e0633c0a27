package commission

import (
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Campaign multiplies commissions generated while it is running
type Campaign struct {
	shared.TenantAggregateRoot
	Name                     string           `json:"name"`
	Multiplier               decimal.Decimal  `json:"multiplier"`
	AppliesToRole            *Role            `json:"applies_to_role,omitempty"`
	AppliesToCalculationType *CalculationType `json:"applies_to_calculation_type,omitempty"`
	StartsAt                 time.Time        `json:"starts_at"`
	EndsAt                   time.Time        `json:"ends_at"`
	Active                   bool             `json:"active"`
}

// NewCampaign creates and validates a campaign
func NewCampaign(tenantID uuid.UUID, name string, multiplier decimal.Decimal, startsAt, endsAt time.Time) (*Campaign, error) {
	c := &Campaign{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Multiplier:          multiplier,
		StartsAt:            startsAt,
		EndsAt:              endsAt,
		Active:              true,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the campaign configuration
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return shared.NewValidationError("name", "Campaign name is required")
	}
	if !c.Multiplier.IsPositive() {
		return shared.NewValidationError("multiplier", "Multiplier must be positive")
	}
	if c.EndsAt.Before(c.StartsAt) {
		return shared.NewValidationError("ends_at", "Campaign must end after it starts")
	}
	if c.AppliesToRole != nil && !c.AppliesToRole.IsValid() {
		return shared.NewValidationError("applies_to_role", "Unknown role")
	}
	if c.AppliesToCalculationType != nil && !c.AppliesToCalculationType.IsValid() {
		return shared.NewValidationError("applies_to_calculation_type", "Unknown calculation type")
	}
	return nil
}

// AppliesTo reports whether the campaign boosts a rule for a role at a given moment
func (c *Campaign) AppliesTo(role Role, calc CalculationType, at time.Time) bool {
	if !c.Active || at.Before(c.StartsAt) || at.After(c.EndsAt) {
		return false
	}
	if c.AppliesToRole != nil && *c.AppliesToRole != role {
		return false
	}
	if c.AppliesToCalculationType != nil && *c.AppliesToCalculationType != calc {
		return false
	}
	return true
}

// bestCampaign returns the applicable campaign with the highest multiplier
func bestCampaign(campaigns []Campaign, role Role, calc CalculationType, at time.Time) *Campaign {
	var best *Campaign
	for i := range campaigns {
		c := &campaigns[i]
		if !c.AppliesTo(role, calc, at) {
			continue
		}
		if best == nil || c.Multiplier.GreaterThan(best.Multiplier) {
			best = c
		}
	}
	return best
}
