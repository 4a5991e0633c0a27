package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockTenantProvider struct {
	mock.Mock
}

func (m *MockTenantProvider) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

type recorder struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (r *recorder) run(_ context.Context, tenantID uuid.UUID, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, tenantID)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestMonthly_Due(t *testing.T) {
	m := Monthly{Day: 1, Hour: 6}
	at := func(month time.Month, day, hour int) time.Time {
		return time.Date(2026, month, day, hour, 0, 0, 0, time.UTC)
	}

	assert.False(t, m.Due(at(3, 1, 5), time.Time{}), "before the hour")
	assert.True(t, m.Due(at(3, 1, 6), time.Time{}))
	assert.True(t, m.Due(at(3, 1, 23), time.Time{}), "late start on the day still fires")
	assert.False(t, m.Due(at(3, 1, 7), at(3, 1, 6)), "already ran this month")
	assert.True(t, m.Due(at(4, 1, 6), at(3, 1, 6)))
	assert.False(t, m.Due(at(3, 2, 6), time.Time{}))
}

func TestEvery_Due(t *testing.T) {
	e := Every{Interval: time.Hour}
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, e.Due(t0, time.Time{}))
	assert.False(t, e.Due(t0.Add(59*time.Minute), t0))
	assert.True(t, e.Due(t0.Add(time.Hour), t0))
}

func TestDaily_Due(t *testing.T) {
	d := Daily{Hour: 2}
	at := func(day, hour int) time.Time {
		return time.Date(2026, 12, day, hour, 0, 0, 0, time.UTC)
	}

	assert.False(t, d.Due(at(10, 1), time.Time{}))
	assert.True(t, d.Due(at(10, 2), time.Time{}))
	assert.False(t, d.Due(at(10, 9), at(10, 2)), "already ran today")
	assert.True(t, d.Due(at(11, 2), at(10, 2)))
	assert.True(t, d.Due(time.Date(2027, 12, 10, 3, 0, 0, 0, time.UTC), at(10, 2)), "same day of another year")
}

func TestNewCronTrigger_Validation(t *testing.T) {
	tp := new(MockTenantProvider)
	cfg := DefaultCronTriggerConfig()
	noop := func(context.Context, uuid.UUID, time.Time) error { return nil }

	_, err := NewCronTrigger(CronTriggerConfig{}, tp, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewCronTrigger(cfg, tp, zap.NewNop(), Job{Name: "x", Run: noop})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewCronTrigger(cfg, tp, zap.NewNop(),
		Job{Name: "x", Schedule: Every{Interval: time.Hour}, Run: noop},
		Job{Name: "x", Schedule: Every{Interval: time.Hour}, Run: noop},
	)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCronTrigger_TickRunsDueJobsPerTenant(t *testing.T) {
	tenants := []uuid.UUID{uuid.New(), uuid.New()}
	tp := new(MockTenantProvider)
	tp.On("ActiveTenantIDs", mock.Anything).Return(tenants, nil)

	billing, retransmit := &recorder{}, &recorder{}
	c, err := NewCronTrigger(DefaultCronTriggerConfig(), tp, zap.NewNop(),
		Job{Name: "bill-recurring", Schedule: Monthly{Day: 1, Hour: 6}, Run: billing.run},
		Job{Name: "fiscal-retransmit", Schedule: Every{Interval: time.Hour}, Run: retransmit.run},
	)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Tick(context.Background())
	assert.Equal(t, 2, billing.count())
	assert.Equal(t, 2, retransmit.count())

	now = now.Add(30 * time.Minute)
	c.Tick(context.Background())
	assert.Equal(t, 2, billing.count())
	assert.Equal(t, 2, retransmit.count())

	now = now.Add(30 * time.Minute)
	c.Tick(context.Background())
	assert.Equal(t, 2, billing.count(), "billing runs once a month")
	assert.Equal(t, 4, retransmit.count())
}

func TestCronTrigger_FailingTenantDoesNotStopOthers(t *testing.T) {
	bad, good := uuid.New(), uuid.New()
	tp := new(MockTenantProvider)
	tp.On("ActiveTenantIDs", mock.Anything).Return([]uuid.UUID{bad, good}, nil)

	var ran []uuid.UUID
	c, err := NewCronTrigger(DefaultCronTriggerConfig(), tp, zap.NewNop(), Job{
		Name:     "fiscal-retransmit",
		Schedule: Every{Interval: time.Hour},
		Run: func(_ context.Context, tenantID uuid.UUID, _ time.Time) error {
			if tenantID == bad {
				panic("provider client bug")
			}
			ran = append(ran, tenantID)
			return errors.New("ignored")
		},
	})
	require.NoError(t, err)

	c.Tick(context.Background())
	assert.Equal(t, []uuid.UUID{good}, ran)
}

func TestCronTrigger_TenantListError(t *testing.T) {
	tp := new(MockTenantProvider)
	tp.On("ActiveTenantIDs", mock.Anything).Return(nil, errors.New("db down"))

	rec := &recorder{}
	c, err := NewCronTrigger(DefaultCronTriggerConfig(), tp, zap.NewNop(),
		Job{Name: "j", Schedule: Every{Interval: time.Hour}, Run: rec.run})
	require.NoError(t, err)

	c.Tick(context.Background())
	assert.Equal(t, 0, rec.count())
}

func TestCronTrigger_RunNow(t *testing.T) {
	tp := new(MockTenantProvider)
	tp.On("ActiveTenantIDs", mock.Anything).Return([]uuid.UUID{uuid.New()}, nil)
	rec := &recorder{}
	c, err := NewCronTrigger(DefaultCronTriggerConfig(), tp, zap.NewNop(),
		Job{Name: "bill-recurring", Schedule: Monthly{Day: 1, Hour: 6}, Run: rec.run})
	require.NoError(t, err)

	require.NoError(t, c.RunNow(context.Background(), "bill-recurring"))
	assert.Equal(t, 1, rec.count())
	assert.ErrorIs(t, c.RunNow(context.Background(), "nope"), ErrJobNotFound)
}

func TestCronTrigger_StartStop(t *testing.T) {
	tp := new(MockTenantProvider)
	tp.On("ActiveTenantIDs", mock.Anything).Return([]uuid.UUID{uuid.New()}, nil)
	rec := &recorder{}
	cfg := DefaultCronTriggerConfig()
	cfg.CheckInterval = 5 * time.Millisecond
	c, err := NewCronTrigger(cfg, tp, zap.NewNop(),
		Job{Name: "j", Schedule: Every{Interval: time.Hour}, Run: rec.run})
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
	require.NoError(t, c.Stop(ctx))
}
