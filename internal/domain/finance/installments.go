package finance

import (
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const (
	MinInstallments = 2
	MaxInstallments = 48
)

// Installment is one planned slice of a split receivable
type Installment struct {
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// PlanInstallments splits a total into monthly installments.
// Each installment is truncated to cents and the last one absorbs the remainder.
func PlanInstallments(total decimal.Decimal, count int, firstDue time.Time) ([]Installment, error) {
	if count < MinInstallments || count > MaxInstallments {
		return nil, shared.NewValidationError("installments", "Installments must be between 2 and 48")
	}
	if !total.IsPositive() {
		return nil, shared.NewValidationError("amount", "Total must be positive")
	}
	if firstDue.IsZero() {
		return nil, shared.NewValidationError("first_due_date", "First due date is required")
	}
	parts, err := valueobject.Allocate(total, count)
	if err != nil {
		return nil, err
	}
	plan := make([]Installment, count)
	for i, amount := range parts {
		plan[i] = Installment{
			Number:  i + 1,
			Amount:  amount,
			DueDate: addMonthsClamped(firstDue, i),
		}
	}
	return plan, nil
}

// addMonthsClamped adds months without overflowing short months (Jan 31 + 1 = Feb 28/29)
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}
