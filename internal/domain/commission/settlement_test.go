package commission

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

func approvedEvents(amounts ...string) []CommissionEvent {
	out := make([]CommissionEvent, len(amounts))
	for i, a := range amounts {
		out[i] = CommissionEvent{CommissionAmount: dec(a), Status: EventStatusApproved}
	}
	return out
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2026-02")
	require.NoError(t, err)
	start, end := p.Bounds(time.UTC)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), end)

	for _, bad := range []string{"2026-13", "2026-1", "26-01", ""} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
	}
}

func TestPeriod_IsFuture(t *testing.T) {
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	assert.False(t, Period("2026-05").IsFuture(now))
	assert.False(t, Period("2026-04").IsFuture(now))
	assert.True(t, Period("2026-06").IsFuture(now))
}

func TestSettlementLifecycle(t *testing.T) {
	user, closer := uuid.New(), uuid.New()

	t.Run("close then pay", func(t *testing.T) {
		s := NewSettlement(uuid.New(), user, "2026-01")
		require.NoError(t, s.Close(approvedEvents("100.10", "49.90"), closer))
		assert.Equal(t, SettlementStatusClosed, s.Status)
		assert.Equal(t, "150.00", s.TotalAmount.StringFixed(2))
		assert.Equal(t, 2, s.EventsCount)
		assert.Equal(t, closer, *s.ClosedBy)

		require.NoError(t, s.Pay(nil, "PIX"))
		assert.Equal(t, SettlementStatusPaid, s.Status)
		assert.NotNil(t, s.PaidAt)
		assert.Equal(t, "150.00", s.PaidAmount.StringFixed(2))

		assert.Error(t, s.Pay(nil, ""), "already paid")
		assert.Error(t, s.Reopen(), "paid cannot reopen")
	})

	t.Run("close with no events fails", func(t *testing.T) {
		s := NewSettlement(uuid.New(), user, "2026-01")
		err := s.Close(nil, closer)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("approve only from closed", func(t *testing.T) {
		s := NewSettlement(uuid.New(), user, "2026-01")
		assert.Error(t, s.Approve(closer))
		require.NoError(t, s.Close(approvedEvents("10"), closer))
		require.NoError(t, s.Approve(closer))
		amount := decimal.NewFromInt(8)
		require.NoError(t, s.Pay(&amount, "partial"))
		assert.Equal(t, "8.00", s.PaidAmount.StringFixed(2))
	})

	t.Run("reject requires closed and reason", func(t *testing.T) {
		s := NewSettlement(uuid.New(), user, "2026-01")
		require.NoError(t, s.Close(approvedEvents("10"), closer))
		assert.Error(t, s.Reject(""))
		require.NoError(t, s.Reject("wrong period"))
		assert.Equal(t, SettlementStatusRejected, s.Status)
		assert.Error(t, s.Reject("again"))

		require.NoError(t, s.Reopen())
		assert.Equal(t, SettlementStatusOpen, s.Status)
		assert.Empty(t, s.RejectionReason)
		assert.Nil(t, s.ClosedAt)
	})
}

func TestCommissionEvent_Transitions(t *testing.T) {
	e := &CommissionEvent{Status: EventStatusPending}
	err := e.TransitionTo(EventStatusPaid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.NewDomainError(shared.CodeInvalidTransition, "")))
	assert.Equal(t, EventStatusPending, e.Status)

	require.NoError(t, e.TransitionTo(EventStatusApproved))
	require.NoError(t, e.TransitionTo(EventStatusPaid))
	assert.Error(t, e.TransitionTo(EventStatusPending), "paid is terminal")
}

func TestCommissionEvent_Release(t *testing.T) {
	t.Run("partial release splits an approved part", func(t *testing.T) {
		e := &CommissionEvent{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
			CommissionAmount:    dec("90"),
			BaseAmount:          dec("900"),
			Status:              EventStatusPending,
		}
		part, err := e.Release(dec("0.3333"))
		require.NoError(t, err)
		require.NotNil(t, part)
		assert.Equal(t, EventStatusApproved, part.Status)
		assert.Equal(t, "30.00", part.CommissionAmount.StringFixed(2))
		assert.Equal(t, e.ID, *part.ParentID)
		assert.Equal(t, EventStatusPending, e.Status)
		assert.Equal(t, "60.00", e.CommissionAmount.StringFixed(2))
	})

	t.Run("full release approves the event", func(t *testing.T) {
		e := &CommissionEvent{CommissionAmount: dec("90"), Status: EventStatusPending}
		part, err := e.Release(decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.Nil(t, part)
		assert.Equal(t, EventStatusApproved, e.Status)
	})

	t.Run("only pending events release", func(t *testing.T) {
		e := &CommissionEvent{CommissionAmount: dec("90"), Status: EventStatusApproved}
		_, err := e.Release(dec("0.5"))
		assert.Error(t, err)
	})
}
