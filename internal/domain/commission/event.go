package commission

import (
	"fmt"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventStatus is the lifecycle state of a commission event
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusPaid     EventStatus = "paid"
	EventStatusRejected EventStatus = "rejected"
	EventStatusDisputed EventStatus = "disputed"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventStatusPending:  {EventStatusApproved, EventStatusRejected, EventStatusDisputed},
	EventStatusApproved: {EventStatusPaid, EventStatusPending, EventStatusRejected, EventStatusDisputed},
	EventStatusDisputed: {EventStatusPending, EventStatusApproved, EventStatusRejected},
	EventStatusRejected: {EventStatusPending},
	EventStatusPaid:     {},
}

// IsValid checks if the status is known
func (s EventStatus) IsValid() bool {
	_, ok := eventTransitions[s]
	return ok
}

// CanTransitionTo reports whether target is reachable from s
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, next := range eventTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from s
func (s EventStatus) AllowedTransitions() []string {
	out := make([]string, 0, len(eventTransitions[s]))
	for _, next := range eventTransitions[s] {
		out = append(out, string(next))
	}
	return out
}

// CommissionEvent is one computed commission owed to a user for one work order
type CommissionEvent struct {
	shared.TenantAggregateRoot
	RuleID           uuid.UUID       `json:"rule_id"`
	WorkOrderID      uuid.UUID       `json:"work_order_id"`
	UserID           uuid.UUID       `json:"user_id"`
	Role             Role            `json:"role"`
	Trigger          Trigger         `json:"trigger"`
	SettlementID     *uuid.UUID      `json:"settlement_id,omitempty"`
	ParentID         *uuid.UUID      `json:"parent_id,omitempty"`
	CampaignID       *uuid.UUID      `json:"campaign_id,omitempty"`
	BaseAmount       decimal.Decimal `json:"base_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Multiplier       decimal.Decimal `json:"multiplier"`
	Status           EventStatus     `json:"status"`
	Notes            string          `json:"notes,omitempty"`
}

// TransitionTo changes the status following the transition table
func (e *CommissionEvent) TransitionTo(target EventStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", fmt.Sprintf("Unknown status %q", target))
	}
	if !e.Status.CanTransitionTo(target) {
		return shared.NewTransitionError(string(e.Status), string(target), e.Status.AllowedTransitions())
	}
	e.Status = target
	e.Touch()
	return nil
}

// LinkSettlement attaches the event to a settlement
func (e *CommissionEvent) LinkSettlement(settlementID uuid.UUID) {
	e.SettlementID = &settlementID
	e.Touch()
}

// RevertToPending unlinks the event from its settlement and sends it back to pending
func (e *CommissionEvent) RevertToPending() {
	e.SettlementID = nil
	e.Status = EventStatusPending
	e.Touch()
}

// Release approves the share of a pending event covered by a payment.
// A full proportion approves the event itself and returns nil.
// A partial proportion returns a new approved event carrying the released share and reduces e.
func (e *CommissionEvent) Release(proportion decimal.Decimal) (*CommissionEvent, error) {
	if e.Status != EventStatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Only pending commissions can be released")
	}
	if !proportion.IsPositive() {
		return nil, shared.NewValidationError("proportion", "Proportion must be positive")
	}
	if proportion.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		e.Status = EventStatusApproved
		e.Touch()
		return nil, nil
	}

	released := valueobject.Round2(e.CommissionAmount.Mul(proportion))
	if !released.IsPositive() {
		return nil, nil
	}
	if released.GreaterThanOrEqual(e.CommissionAmount) {
		e.Status = EventStatusApproved
		e.Touch()
		return nil, nil
	}

	parentID := e.ID
	part := &CommissionEvent{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.TenantID),
		RuleID:              e.RuleID,
		WorkOrderID:         e.WorkOrderID,
		UserID:              e.UserID,
		Role:                e.Role,
		Trigger:             e.Trigger,
		ParentID:            &parentID,
		CampaignID:          e.CampaignID,
		BaseAmount:          valueobject.Round2(e.BaseAmount.Mul(proportion)),
		CommissionAmount:    released,
		Multiplier:          e.Multiplier,
		Status:              EventStatusApproved,
		Notes:               fmt.Sprintf("Released %s%% by payment", proportion.Mul(decimal.NewFromInt(100)).StringFixed(2)),
	}
	e.CommissionAmount = e.CommissionAmount.Sub(released)
	e.BaseAmount = valueobject.NonNegative(e.BaseAmount.Sub(part.BaseAmount))
	e.Touch()
	return part, nil
}
