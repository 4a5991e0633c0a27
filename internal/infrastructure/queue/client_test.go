package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task.Type(), len(opts))
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func (m *mockEnqueuer) Close() error { return nil }

func TestClient_DisabledDropsTasks(t *testing.T) {
	c := NewClient(config.QueueConfig{Enabled: false}, config.RedisConfig{})
	assert.False(t, c.Enabled())
	assert.NoError(t, c.EnqueueRecurringBilling(RecurringBillingPayload{TenantID: uuid.New(), Month: "2026-03"}))
	assert.NoError(t, c.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	assert.NoError(t, nilClient.Close())
}

func TestClient_Enqueue(t *testing.T) {
	m := new(mockEnqueuer)
	c := &Client{client: m, enabled: true, maxRetry: 5}

	m.On("Enqueue", TaskRecurringBilling, 4).Return(&asynq.TaskInfo{}, nil).Once()
	m.On("Enqueue", TaskFiscalRetransmit, 3).Return(&asynq.TaskInfo{}, nil).Once()
	m.On("Enqueue", TaskCommissionStatement, 2).Return(nil, errors.New("redis down")).Once()

	require.NoError(t, c.EnqueueRecurringBilling(RecurringBillingPayload{TenantID: uuid.New(), Month: "2026-03"}))
	require.NoError(t, c.EnqueueFiscalRetransmit(FiscalRetransmitPayload{TenantID: uuid.New()}, -time.Second))

	err := c.EnqueueCommissionStatement(CommissionStatementPayload{TenantID: uuid.New(), SettlementID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue commission:statement")
	m.AssertExpectations(t)
}

func TestClient_DuplicateBillingIsNotAnError(t *testing.T) {
	m := new(mockEnqueuer)
	c := &Client{client: m, enabled: true}
	m.On("Enqueue", TaskRecurringBilling, 3).Return(nil, asynq.ErrTaskIDConflict)

	assert.NoError(t, c.EnqueueRecurringBilling(RecurringBillingPayload{TenantID: uuid.New(), Month: "2026-03"}))
}

func TestTasks_RoundTripPayload(t *testing.T) {
	in := CommissionStatementPayload{TenantID: uuid.New(), SettlementID: uuid.New(), RequestedBy: uuid.New()}
	task, err := NewCommissionStatementTask(in)
	require.NoError(t, err)
	assert.Equal(t, TaskCommissionStatement, task.Type())

	var out CommissionStatementPayload
	require.NoError(t, DecodePayload(task, &out))
	assert.Equal(t, in, out)

	bad := asynq.NewTask(TaskFiscalRetransmit, []byte("{"))
	err = DecodePayload(bad, &FiscalRetransmitPayload{})
	assert.ErrorContains(t, err, "decode fiscal:retransmit payload")
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(config.QueueConfig{}, config.RedisConfig{})
	assert.Equal(t, "127.0.0.1:6379", opt.Addr)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 6, cfg.Queues[QueueCritical])

	opt, cfg = BuildServerConfig(
		config.QueueConfig{Concurrency: 4, Queues: map[string]int{"default": 1}},
		config.RedisConfig{Host: "redis", Port: 6380, DB: 2},
	)
	assert.Equal(t, "redis:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, map[string]int{"default": 1}, cfg.Queues)
}
