package commission

import (
	"sort"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Beneficiary is a user entitled to commissions on a work order
type Beneficiary struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	// Divisor splits technician commissions between everyone who worked the order
	Divisor int `json:"divisor"`
}

// Beneficiaries lists technicians, the seller and the driver of a work order.
// A seller who also worked as a technician is paid only as a technician.
func Beneficiaries(wo *workorder.WorkOrder) []Beneficiary {
	techs := wo.Technicians()
	out := make([]Beneficiary, 0, len(techs)+2)
	isTech := make(map[uuid.UUID]bool, len(techs))
	for _, id := range techs {
		isTech[id] = true
		out = append(out, Beneficiary{UserID: id, Role: RoleTechnician, Divisor: len(techs)})
	}
	if wo.SellerID != nil && *wo.SellerID != uuid.Nil && !isTech[*wo.SellerID] {
		out = append(out, Beneficiary{UserID: *wo.SellerID, Role: RoleSeller, Divisor: 1})
	}
	if wo.DriverID != nil && *wo.DriverID != uuid.Nil {
		out = append(out, Beneficiary{UserID: *wo.DriverID, Role: RoleDriver, Divisor: 1})
	}
	return out
}

// Calculation is the result of applying one rule to one beneficiary
type Calculation struct {
	Beneficiary
	RuleID          uuid.UUID       `json:"rule_id"`
	RuleName        string          `json:"rule_name"`
	CalculationType CalculationType `json:"calculation_type"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	Amount          decimal.Decimal `json:"commission_amount"`
	CampaignID      *uuid.UUID      `json:"campaign_id,omitempty"`
	Multiplier      decimal.Decimal `json:"multiplier"`
}

// Evaluator turns a work order and the tenant's rules into commission calculations
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator creates an evaluator using the wall clock
func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// WithClock overrides the clock used for campaign windows
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// BaseFor builds the calculation base of a work order
func BaseFor(wo *workorder.WorkOrder, netExpenses decimal.Decimal) Base {
	return Base{
		Gross:        wo.Total,
		Expenses:     netExpenses,
		Displacement: wo.DisplacementValue,
		Products:     wo.ProductsTotal(),
		Services:     wo.ServicesTotal(),
		Cost:         wo.CostTotal(),
		ItemsCount:   wo.ItemsCount(),
	}
}

// Evaluate applies every matching rule to every beneficiary.
// Each matching rule yields its own calculation. Warranty and zero-value orders yield nothing.
func (e *Evaluator) Evaluate(wo *workorder.WorkOrder, trigger Trigger, rules []Rule, campaigns []Campaign, netExpenses decimal.Decimal) []Calculation {
	if wo.IsWarranty || !wo.Total.IsPositive() {
		return nil
	}

	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	base := BaseFor(wo, netExpenses)
	now := e.now()
	var out []Calculation
	for _, b := range Beneficiaries(wo) {
		for i := range ordered {
			rule := &ordered[i]
			if !rule.Matches(b.UserID, b.Role, trigger) {
				continue
			}
			amount := rule.Calculate(base)
			if b.Divisor > 1 {
				amount = valueobject.Round2(amount.Div(decimal.NewFromInt(int64(b.Divisor))))
			}
			calc := Calculation{
				Beneficiary:     b,
				RuleID:          rule.ID,
				RuleName:        rule.Name,
				CalculationType: rule.CalculationType,
				BaseAmount:      valueobject.Round2(rule.BaseAmount(base)),
				Amount:          amount,
				Multiplier:      decimal.NewFromInt(1),
			}
			if campaign := bestCampaign(campaigns, b.Role, rule.CalculationType, now); campaign != nil {
				id := campaign.ID
				calc.CampaignID = &id
				calc.Multiplier = campaign.Multiplier
				calc.Amount = valueobject.Round2(amount.Mul(campaign.Multiplier))
			}
			out = append(out, calc)
		}
	}
	return out
}

// ToEvent materializes a calculation as a pending commission event
func (c Calculation) ToEvent(tenantID, workOrderID uuid.UUID, trigger Trigger) *CommissionEvent {
	return &CommissionEvent{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RuleID:              c.RuleID,
		WorkOrderID:         workOrderID,
		UserID:              c.UserID,
		Role:                c.Role,
		Trigger:             trigger,
		CampaignID:          c.CampaignID,
		BaseAmount:          c.BaseAmount,
		CommissionAmount:    c.Amount,
		Multiplier:          c.Multiplier,
		Status:              EventStatusPending,
	}
}

// ReleaseProportion is payment / total rounded to four places and capped at one
func ReleaseProportion(payment, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.NewFromInt(1)
	}
	p := payment.DivRound(total, 4)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return p
}
