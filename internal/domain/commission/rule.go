package commission

import (
	"fmt"
	"sort"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculationType selects how a rule turns a work order into an amount
type CalculationType string

const (
	CalcPercentGross                  CalculationType = "percent_gross"
	CalcPercentNet                    CalculationType = "percent_net"
	CalcPercentGrossMinusDisplacement CalculationType = "percent_gross_minus_displacement"
	CalcPercentServicesOnly           CalculationType = "percent_services_only"
	CalcPercentProductsOnly           CalculationType = "percent_products_only"
	CalcPercentProfit                 CalculationType = "percent_profit"
	CalcPercentGrossMinusExpenses     CalculationType = "percent_gross_minus_expenses"
	CalcFixedPerOS                    CalculationType = "fixed_per_os"
	CalcFixedPerItem                  CalculationType = "fixed_per_item"
	CalcTieredGross                   CalculationType = "tiered_gross"
	CalcCustomFormula                 CalculationType = "custom_formula"
)

// IsValid checks if the calculation type is known
func (c CalculationType) IsValid() bool {
	switch c {
	case CalcPercentGross, CalcPercentNet, CalcPercentGrossMinusDisplacement, CalcPercentServicesOnly,
		CalcPercentProductsOnly, CalcPercentProfit, CalcPercentGrossMinusExpenses, CalcFixedPerOS,
		CalcFixedPerItem, CalcTieredGross, CalcCustomFormula:
		return true
	}
	return false
}

// IsPercentage reports whether the rule value is a percentage
func (c CalculationType) IsPercentage() bool {
	switch c {
	case CalcFixedPerOS, CalcFixedPerItem, CalcTieredGross:
		return false
	}
	return true
}

// Role is the part a user played on the work order
type Role string

const (
	RoleTechnician Role = "technician"
	RoleSeller     Role = "seller"
	RoleDriver     Role = "driver"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleTechnician || r == RoleSeller || r == RoleDriver
}

// Trigger is the business moment a rule fires on
type Trigger string

const (
	TriggerOSCompleted     Trigger = "os_completed"
	TriggerOSInvoiced      Trigger = "os_invoiced"
	TriggerInstallmentPaid Trigger = "installment_paid"
)

// IsValid checks if the trigger is known
func (t Trigger) IsValid() bool {
	return t == TriggerOSCompleted || t == TriggerOSInvoiced || t == TriggerInstallmentPaid
}

// Tier is one band of a tiered_gross rule. A nil UpTo means unbounded.
type Tier struct {
	UpTo    *decimal.Decimal `json:"up_to,omitempty"`
	Percent decimal.Decimal  `json:"percent"`
}

// Base holds the work order figures a rule can be computed from
type Base struct {
	Gross        decimal.Decimal
	Expenses     decimal.Decimal // approved expenses flagged affects_net_value
	Displacement decimal.Decimal
	Products     decimal.Decimal
	Services     decimal.Decimal
	Cost         decimal.Decimal
	ItemsCount   int
}

// Net is gross minus net-affecting expenses. Item cost only enters percent_profit.
func (b Base) Net() decimal.Decimal {
	return b.Gross.Sub(b.Expenses)
}

// Rule is a tenant-defined commission rule
type Rule struct {
	shared.TenantAggregateRoot
	UserID          *uuid.UUID      `json:"user_id,omitempty"`
	Name            string          `json:"name"`
	Value           decimal.Decimal `json:"value"`
	CalculationType CalculationType `json:"calculation_type"`
	AppliesToRole   Role            `json:"applies_to_role"`
	AppliesWhen     Trigger         `json:"applies_when"`
	Tiers           []Tier          `json:"tiers"`
	Formula         string          `json:"formula,omitempty"`
	Priority        int             `json:"priority"`
	Active          bool            `json:"active"`
}

// NewRule creates and validates a rule
func NewRule(tenantID uuid.UUID, name string, calc CalculationType, value decimal.Decimal, role Role, when Trigger) (*Rule, error) {
	r := &Rule{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Value:               value,
		CalculationType:     calc,
		AppliesToRole:       role,
		AppliesWhen:         when,
		Tiers:               []Tier{},
		Active:              true,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the rule's configuration
func (r *Rule) Validate() error {
	if r.Name == "" {
		return shared.NewValidationError("name", "Rule name is required")
	}
	if !r.CalculationType.IsValid() {
		return shared.NewValidationError("calculation_type", fmt.Sprintf("Unknown calculation type %q", r.CalculationType))
	}
	if !r.AppliesToRole.IsValid() {
		return shared.NewValidationError("applies_to_role", fmt.Sprintf("Unknown role %q", r.AppliesToRole))
	}
	if !r.AppliesWhen.IsValid() {
		return shared.NewValidationError("applies_when", fmt.Sprintf("Unknown trigger %q", r.AppliesWhen))
	}
	if r.Value.IsNegative() {
		return shared.NewValidationError("value", "Value cannot be negative")
	}
	if r.CalculationType.IsPercentage() && r.Value.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("value", "Percentage cannot exceed 100")
	}
	switch r.CalculationType {
	case CalcTieredGross:
		if len(r.Tiers) == 0 {
			return shared.NewValidationError("tiers", "Tiered rules need at least one tier")
		}
	case CalcCustomFormula:
		if _, err := parseFormula(r.Formula); err != nil {
			return shared.NewValidationError("formula", err.Error())
		}
	}
	return nil
}

// Matches reports whether the rule applies to a beneficiary on a trigger
func (r *Rule) Matches(userID uuid.UUID, role Role, trigger Trigger) bool {
	if !r.Active || r.AppliesToRole != role || r.AppliesWhen != trigger {
		return false
	}
	return r.UserID == nil || *r.UserID == userID
}

// BaseAmount returns the figure the rule is applied to
func (r *Rule) BaseAmount(b Base) decimal.Decimal {
	switch r.CalculationType {
	case CalcPercentNet:
		return b.Net()
	case CalcPercentGrossMinusDisplacement:
		return b.Gross.Sub(b.Displacement)
	case CalcPercentServicesOnly:
		return b.Services
	case CalcPercentProductsOnly:
		return b.Products
	case CalcPercentProfit:
		return b.Gross.Sub(b.Cost)
	case CalcPercentGrossMinusExpenses:
		return b.Gross.Sub(b.Expenses)
	}
	return b.Gross
}

// Calculate computes the commission, rounded to cents and never negative
func (r *Rule) Calculate(b Base) decimal.Decimal {
	var amount decimal.Decimal
	switch r.CalculationType {
	case CalcFixedPerOS:
		amount = r.Value
	case CalcFixedPerItem:
		amount = r.Value.Mul(decimal.NewFromInt(int64(b.ItemsCount)))
	case CalcTieredGross:
		amount = tieredAmount(b.Gross, r.Tiers)
	case CalcCustomFormula:
		amount = r.evaluateFormula(b)
	default:
		amount = valueobject.Percent(valueobject.NonNegative(r.BaseAmount(b)), r.Value)
	}
	return valueobject.Round2(valueobject.NonNegative(amount))
}

func (r *Rule) evaluateFormula(b Base) decimal.Decimal {
	expr, err := parseFormula(r.Formula)
	if err != nil {
		return valueobject.Percent(b.Gross, r.Value)
	}
	vars := map[string]decimal.Decimal{
		"gross":        b.Gross,
		"net":          b.Net(),
		"products":     b.Products,
		"services":     b.Services,
		"expenses":     b.Expenses,
		"displacement": b.Displacement,
		"cost":         b.Cost,
		"percent":      r.Value,
	}
	return expr.eval(vars)
}

// tieredAmount applies each band's percent to the slice of gross that falls inside it
func tieredAmount(gross decimal.Decimal, tiers []Tier) decimal.Decimal {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UpTo == nil {
			return false
		}
		if sorted[j].UpTo == nil {
			return true
		}
		return sorted[i].UpTo.LessThan(*sorted[j].UpTo)
	})

	total := decimal.Zero
	floor := decimal.Zero
	for _, tier := range sorted {
		if gross.LessThanOrEqual(floor) {
			break
		}
		ceiling := gross
		if tier.UpTo != nil && tier.UpTo.LessThan(gross) {
			ceiling = *tier.UpTo
		}
		total = total.Add(valueobject.Percent(ceiling.Sub(floor), tier.Percent))
		if tier.UpTo == nil {
			break
		}
		floor = *tier.UpTo
	}
	return total
}
