package commission

import (
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementStatus is the lifecycle state of a settlement
type SettlementStatus string

const (
	SettlementStatusOpen     SettlementStatus = "open"
	SettlementStatusClosed   SettlementStatus = "closed"
	SettlementStatusApproved SettlementStatus = "approved"
	SettlementStatusPaid     SettlementStatus = "paid"
	SettlementStatusRejected SettlementStatus = "rejected"
)

// Period is a YYYY-MM settlement month
type Period = valueobject.Period

// ParsePeriod validates a YYYY-MM string
func ParsePeriod(s string) (Period, error) {
	return valueobject.ParsePeriod(s)
}

// Settlement groups a user's approved commission events for one period
type Settlement struct {
	shared.TenantAggregateRoot
	UserID          uuid.UUID        `json:"user_id"`
	Period          Period           `json:"period"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	EventsCount     int              `json:"events_count"`
	Status          SettlementStatus `json:"status"`
	ClosedBy        *uuid.UUID       `json:"closed_by,omitempty"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	ApprovedBy      *uuid.UUID       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	PaidAt          *time.Time       `json:"paid_at,omitempty"`
	PaidAmount      *decimal.Decimal `json:"paid_amount,omitempty"`
	PaymentNotes    string           `json:"payment_notes,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
}

// NewSettlement creates an open settlement for a user and period
func NewSettlement(tenantID, userID uuid.UUID, period Period) *Settlement {
	return &Settlement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Period:              period,
		TotalAmount:         decimal.Zero,
		Status:              SettlementStatusOpen,
	}
}

func (s *Settlement) invalid(action string) error {
	return shared.NewDomainError(shared.CodeInvalidState,
		fmt.Sprintf("Cannot %s a settlement in %s status", action, s.Status))
}

// Close totals the given events and moves the settlement to closed.
// Events are linked by the caller and keep their approved status.
func (s *Settlement) Close(events []CommissionEvent, closedBy uuid.UUID) error {
	if s.Status == SettlementStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidState, "Settlement for this period is already paid")
	}
	if len(events) == 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "No approved commissions to settle in this period")
	}
	total := decimal.Zero
	for _, e := range events {
		total = total.Add(e.CommissionAmount)
	}
	now := time.Now()
	s.TotalAmount = total.Round(2)
	s.EventsCount = len(events)
	s.Status = SettlementStatusClosed
	s.ClosedBy = &closedBy
	s.ClosedAt = &now
	s.ApprovedBy = nil
	s.ApprovedAt = nil
	s.RejectionReason = ""
	s.Touch()
	return nil
}

// Approve moves a closed settlement to approved
func (s *Settlement) Approve(approvedBy uuid.UUID) error {
	if s.Status != SettlementStatusClosed {
		return s.invalid("approve")
	}
	now := time.Now()
	s.Status = SettlementStatusApproved
	s.ApprovedBy = &approvedBy
	s.ApprovedAt = &now
	s.Touch()
	return nil
}

// Pay marks the settlement paid. A nil amount pays the full total.
func (s *Settlement) Pay(amount *decimal.Decimal, notes string) error {
	if s.Status != SettlementStatusClosed && s.Status != SettlementStatusApproved {
		return s.invalid("pay")
	}
	paid := s.TotalAmount
	if amount != nil {
		if amount.IsNegative() {
			return shared.NewValidationError("paid_amount", "Paid amount cannot be negative")
		}
		paid = amount.Round(2)
	}
	now := time.Now()
	s.Status = SettlementStatusPaid
	s.PaidAt = &now
	s.PaidAmount = &paid
	s.PaymentNotes = notes
	s.Touch()
	return nil
}

// Reopen sends the settlement back to open and clears its close and approval data
func (s *Settlement) Reopen() error {
	switch s.Status {
	case SettlementStatusClosed, SettlementStatusApproved, SettlementStatusRejected:
	default:
		return s.invalid("reopen")
	}
	s.Status = SettlementStatusOpen
	s.ClosedBy = nil
	s.ClosedAt = nil
	s.ApprovedBy = nil
	s.ApprovedAt = nil
	s.RejectionReason = ""
	s.TotalAmount = decimal.Zero
	s.EventsCount = 0
	s.Touch()
	return nil
}

// Reject marks a closed settlement rejected with a reason
func (s *Settlement) Reject(reason string) error {
	if s.Status != SettlementStatusClosed {
		return s.invalid("reject")
	}
	if reason == "" {
		return shared.NewValidationError("rejection_reason", "Rejection reason is required")
	}
	s.Status = SettlementStatusRejected
	s.RejectionReason = reason
	s.Touch()
	return nil
}
