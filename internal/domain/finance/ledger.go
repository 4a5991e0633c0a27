package finance

import (
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DocumentStatus is the settlement state of a receivable or payable
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusPartial   DocumentStatus = "partial"
	StatusPaid      DocumentStatus = "paid"
	StatusOverdue   DocumentStatus = "overdue"
	StatusCancelled DocumentStatus = "cancelled"
)

// IsValid checks if the status is known
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the document still has money outstanding
func (s DocumentStatus) IsOpen() bool {
	return s == StatusPending || s == StatusPartial || s == StatusOverdue
}

// DeriveStatus computes a document status from its paid ratio and due date.
// Overdue is sticky until the document is fully paid; cancelled never changes.
func DeriveStatus(amount, amountPaid decimal.Decimal, dueDate time.Time, current DocumentStatus, now time.Time) DocumentStatus {
	if current == StatusCancelled {
		return StatusCancelled
	}
	if amountPaid.GreaterThanOrEqual(amount) {
		return StatusPaid
	}
	if current == StatusOverdue || isPastDue(dueDate, now) {
		return StatusOverdue
	}
	if amountPaid.IsPositive() {
		return StatusPartial
	}
	return StatusPending
}

func isPastDue(dueDate, now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	dy, dm, dd := dueDate.In(now.Location()).Date()
	due := time.Date(dy, dm, dd, 0, 0, 0, 0, now.Location())
	return due.Before(today)
}

// Ledger holds the money fields shared by receivables and payables
type Ledger struct {
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	DueDate    time.Time       `json:"due_date"`
	Status     DocumentStatus  `json:"status"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
}

func newLedger(amount decimal.Decimal, dueDate time.Time) (Ledger, error) {
	if amount.LessThan(valueobject.Cent()) {
		return Ledger{}, shared.NewValidationError("amount", "Amount must be at least 0.01")
	}
	if dueDate.IsZero() {
		return Ledger{}, shared.NewValidationError("due_date", "Due date is required")
	}
	return Ledger{
		Amount:     valueobject.Round2(amount),
		AmountPaid: decimal.Zero,
		DueDate:    dueDate,
		Status:     StatusPending,
	}, nil
}

// Remaining returns amount − amount_paid, never negative
func (l *Ledger) Remaining() decimal.Decimal {
	return valueobject.NonNegative(l.Amount.Sub(l.AmountPaid))
}

// Refresh re-derives the status. It is a no-op when nothing changed.
func (l *Ledger) Refresh(now time.Time) {
	l.Status = DeriveStatus(l.Amount, l.AmountPaid, l.DueDate, l.Status, now)
	if l.Status == StatusPaid {
		if l.PaidAt == nil {
			l.PaidAt = &now
		}
	} else {
		l.PaidAt = nil
	}
}

// ValidatePayment checks an incoming payment against the document
func (l *Ledger) ValidatePayment(amount decimal.Decimal) error {
	switch {
	case l.Status == StatusCancelled:
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot pay a cancelled document")
	case l.Status == StatusPaid || !l.Remaining().IsPositive():
		return shared.NewDomainError(shared.CodeInvalidState, "Document is already settled")
	case amount.LessThan(valueobject.Cent()):
		return shared.NewValidationError("amount", "Amount must be at least 0.01")
	case amount.GreaterThan(l.Remaining()):
		return shared.NewValidationError("amount",
			fmt.Sprintf("Amount %s exceeds the remaining balance %s", amount.StringFixed(2), l.Remaining().StringFixed(2)))
	}
	return nil
}

// ApplyPayment adds a validated payment and re-derives the status
func (l *Ledger) ApplyPayment(amount decimal.Decimal, now time.Time) error {
	if err := l.ValidatePayment(amount); err != nil {
		return err
	}
	l.AmountPaid = valueobject.Round2(l.AmountPaid.Add(amount))
	l.Refresh(now)
	return nil
}

// RecomputePaid resets amount_paid from the surviving payments, e.g. after a reversal.
// A document that is no longer fully paid falls back to partial, pending or overdue.
func (l *Ledger) RecomputePaid(totalPaid decimal.Decimal, now time.Time) {
	l.AmountPaid = valueobject.Round2(totalPaid)
	if l.Status == StatusPaid {
		l.Status = StatusPending
	}
	l.Refresh(now)
}

// Cancel cancels an unpaid document
func (l *Ledger) Cancel() error {
	if l.Status == StatusPaid {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot cancel a paid document")
	}
	if l.Status == StatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState, "Document is already cancelled")
	}
	l.Status = StatusCancelled
	return nil
}
