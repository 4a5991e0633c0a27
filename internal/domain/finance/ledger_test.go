package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var today = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func TestDeriveStatus(t *testing.T) {
	tomorrow := today.AddDate(0, 0, 1)
	yesterday := today.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		paid    string
		due     time.Time
		current DocumentStatus
		want    DocumentStatus
	}{
		{"unpaid future", "0", tomorrow, StatusPending, StatusPending},
		{"partial future", "400", tomorrow, StatusPending, StatusPartial},
		{"fully paid", "1000", yesterday, StatusOverdue, StatusPaid},
		{"unpaid past due", "0", yesterday, StatusPending, StatusOverdue},
		{"overdue stays overdue after partial", "400", tomorrow, StatusOverdue, StatusOverdue},
		{"due today is not overdue", "0", today, StatusPending, StatusPending},
		{"cancelled is terminal", "0", yesterday, StatusCancelled, StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(d("1000"), d(tt.paid), tt.due, tt.current, today)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, DeriveStatus(d("1000"), d(tt.paid), tt.due, got, today), "derivation is idempotent")
		})
	}
}

func newReceivable(t *testing.T, amount string, due time.Time) *AccountReceivable {
	t.Helper()
	ar, err := NewAccountReceivable(uuid.New(), uuid.New(), "OS OS-000001", d(amount), due)
	require.NoError(t, err)
	return ar
}

func TestReceivable_PayTwiceToSettle(t *testing.T) {
	ar := newReceivable(t, "1000", time.Now().AddDate(0, 0, 10))

	p1, err := ar.Pay(d("400"), "pix", time.Now(), nil, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, ar.Status)
	assert.Nil(t, ar.PaidAt)
	assert.Equal(t, PayableTypeReceivable, p1.PayableType)
	assert.Equal(t, ar.ID, p1.PayableID)

	_, err = ar.Pay(d("600"), "pix", time.Now(), nil, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1000.00", ar.AmountPaid.StringFixed(2))
	assert.Equal(t, StatusPaid, ar.Status)
	assert.NotNil(t, ar.PaidAt)
	assert.Len(t, ar.GetDomainEvents(), 2)
}

func TestReceivable_PayValidation(t *testing.T) {
	t.Run("amount above remaining", func(t *testing.T) {
		ar := newReceivable(t, "100", time.Now().AddDate(0, 0, 10))
		_, err := ar.Pay(d("100.01"), "pix", time.Now(), nil, "", time.Now())
		assert.Error(t, err)
		assert.True(t, ar.AmountPaid.IsZero())
	})

	t.Run("below one cent", func(t *testing.T) {
		ar := newReceivable(t, "100", time.Now().AddDate(0, 0, 10))
		_, err := ar.Pay(d("0.001"), "pix", time.Now(), nil, "", time.Now())
		assert.Error(t, err)
	})

	t.Run("missing method", func(t *testing.T) {
		ar := newReceivable(t, "100", time.Now().AddDate(0, 0, 10))
		_, err := ar.Pay(d("10"), "", time.Now(), nil, "", time.Now())
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ar := newReceivable(t, "100", time.Now().AddDate(0, 0, 10))
		require.NoError(t, ar.Cancel())
		_, err := ar.Pay(d("10"), "pix", time.Now(), nil, "", time.Now())
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("already paid", func(t *testing.T) {
		ar := newReceivable(t, "100", time.Now().AddDate(0, 0, 10))
		_, err := ar.Pay(d("100"), "pix", time.Now(), nil, "", time.Now())
		require.NoError(t, err)
		_, err = ar.Pay(d("1"), "pix", time.Now(), nil, "", time.Now())
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Error(t, ar.Cancel(), "paid documents cannot be cancelled")
	})
}

func TestReceivable_OverduePartialStaysOverdue(t *testing.T) {
	ar := newReceivable(t, "1000", time.Now().AddDate(0, 0, -3))
	ar.Refresh(time.Now())
	require.Equal(t, StatusOverdue, ar.Status)

	_, err := ar.Pay(d("300"), "boleto", time.Now(), nil, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, ar.Status)

	_, err = ar.Pay(d("700"), "boleto", time.Now(), nil, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, ar.Status)
}

func TestReceivable_PaymentDateDoesNotDriveStatus(t *testing.T) {
	now := time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)

	t.Run("post-dated partial on a document not yet due", func(t *testing.T) {
		ar := newReceivable(t, "1000", now.AddDate(0, 0, 3))
		payment, err := ar.Pay(d("400"), "pix", now.AddDate(0, 0, 10), nil, "", now)
		require.NoError(t, err)
		assert.Equal(t, StatusPartial, ar.Status)
		assert.Equal(t, now.AddDate(0, 0, 10), payment.PaymentDate)
	})

	t.Run("backdated partial on a past due document", func(t *testing.T) {
		ar := newReceivable(t, "1000", now.AddDate(0, 0, -5))
		_, err := ar.Pay(d("40"), "pix", now.AddDate(0, 0, -10), nil, "", now)
		require.NoError(t, err)
		assert.Equal(t, StatusOverdue, ar.Status)
	})

	t.Run("paid_at is the settlement time", func(t *testing.T) {
		ar := newReceivable(t, "1000", now.AddDate(0, 0, 5))
		_, err := ar.Pay(d("1000"), "pix", now.AddDate(0, -2, 0), nil, "", now)
		require.NoError(t, err)
		require.NotNil(t, ar.PaidAt)
		assert.Equal(t, now, *ar.PaidAt)
	})
}

func TestPayable_PaymentDateDoesNotDriveStatus(t *testing.T) {
	now := time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC)
	ap, err := NewAccountPayable(uuid.New(), "Fornecedor", "Padrões de massa", d("500"), now.AddDate(0, 0, 2))
	require.NoError(t, err)

	_, err = ap.Pay(d("100"), "pix", now.AddDate(0, 1, 0), nil, "", now)
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, ap.Status)

	_, err = ap.Pay(d("400"), "pix", now.AddDate(0, -1, 0), nil, "", now)
	require.NoError(t, err)
	require.NotNil(t, ap.PaidAt)
	assert.Equal(t, now, *ap.PaidAt)
}

func TestLedger_RecomputePaid(t *testing.T) {
	ar := newReceivable(t, "1000", time.Now().AddDate(0, 0, 5))
	_, err := ar.Pay(d("1000"), "pix", time.Now(), nil, "", time.Now())
	require.NoError(t, err)

	ar.RecomputePaid(d("400"), time.Now())
	assert.Equal(t, StatusPartial, ar.Status)
	assert.Nil(t, ar.PaidAt)

	ar.RecomputePaid(decimal.Zero, time.Now())
	assert.Equal(t, StatusPending, ar.Status)
}

func TestPlanInstallments(t *testing.T) {
	first := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	plan, err := PlanInstallments(d("100"), 3, first)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, "33.33", plan[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", plan[1].Amount.StringFixed(2))
	assert.Equal(t, "33.34", plan[2].Amount.StringFixed(2))
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), plan[1].DueDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), plan[2].DueDate)

	_, err = PlanInstallments(d("100"), 1, first)
	assert.Error(t, err)
	_, err = PlanInstallments(d("100"), 49, first)
	assert.Error(t, err)
}

func TestInvoice_Lifecycle(t *testing.T) {
	inv, err := NewInvoice(uuid.New(), uuid.New(), "NF-000001", d("500"))
	require.NoError(t, err)
	assert.NoError(t, inv.EnsureDeletable())

	err = inv.TransitionTo(InvoiceStatusSent)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, shared.CodeInvalidTransition, de.Code)

	require.NoError(t, inv.TransitionTo(InvoiceStatusIssued))
	assert.NotNil(t, inv.IssuedAt)
	assert.Error(t, inv.EnsureDeletable())
	require.NoError(t, inv.TransitionTo(InvoiceStatusSent))
	require.NoError(t, inv.TransitionTo(InvoiceStatusCancelled))
	assert.False(t, inv.IsActive())
	assert.Error(t, inv.Update(d("10"), nil, ""), "cancelled invoices are frozen")
	assert.Error(t, inv.TransitionTo(InvoiceStatusDraft))
}

func TestExpense_AffectsNet(t *testing.T) {
	e, err := NewExpense(uuid.New(), "Fuel", d("80"), time.Now(), true)
	require.NoError(t, err)
	assert.False(t, e.AffectsNet(), "pending expenses do not count")
	require.NoError(t, e.Approve(uuid.New()))
	assert.True(t, e.AffectsNet())
	assert.Error(t, e.Reject(uuid.New(), "late"))
}
