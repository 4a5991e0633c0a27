package worker

import (
	"context"
	"errors"
	"testing"

	commissionapp "github.com/calibra/backend/internal/application/commission"
	contractapp "github.com/calibra/backend/internal/application/contract"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/infrastructure/queue"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockBiller struct{ mock.Mock }

func (m *mockBiller) BillMonth(ctx context.Context, tenantID uuid.UUID, month valueobject.Period) (*contractapp.BillingResult, error) {
	args := m.Called(tenantID, month)
	res, _ := args.Get(0).(*contractapp.BillingResult)
	return res, args.Error(1)
}

type mockRetransmitter struct{ mock.Mock }

func (m *mockRetransmitter) RetransmitPending(ctx context.Context, tenantID uuid.UUID) (*fiscal.RetransmitSummary, error) {
	args := m.Called(tenantID)
	res, _ := args.Get(0).(*fiscal.RetransmitSummary)
	return res, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishStatement(ctx context.Context, tenantID, id uuid.UUID) (*commissionapp.StatementFile, error) {
	args := m.Called(tenantID, id)
	res, _ := args.Get(0).(*commissionapp.StatementFile)
	return res, args.Error(1)
}

func serve(t *testing.T, c *Consumer, task *asynq.Task) error {
	t.Helper()
	mux := asynq.NewServeMux()
	c.Register(mux)
	return mux.ProcessTask(context.Background(), task)
}

func TestRecurringBilling(t *testing.T) {
	biller := &mockBiller{}
	c := &Consumer{Billing: biller, Logger: zap.NewNop()}
	tenantID := uuid.New()

	biller.On("BillMonth", tenantID, valueobject.Period("2026-03")).
		Return(&contractapp.BillingResult{TenantID: tenantID, Month: "2026-03", Created: 2}, nil).Once()
	task, err := queue.NewRecurringBillingTask(queue.RecurringBillingPayload{TenantID: tenantID, Month: "2026-03"})
	require.NoError(t, err)
	require.NoError(t, serve(t, c, task))

	t.Run("invalid month is not retried", func(t *testing.T) {
		task, err := queue.NewRecurringBillingTask(queue.RecurringBillingPayload{TenantID: tenantID, Month: "03/2026"})
		require.NoError(t, err)
		assert.ErrorIs(t, serve(t, c, task), asynq.SkipRetry)
	})

	t.Run("garbage payload is not retried", func(t *testing.T) {
		assert.ErrorIs(t, serve(t, c, asynq.NewTask(queue.TaskRecurringBilling, []byte("{"))), asynq.SkipRetry)
	})

	t.Run("infrastructure errors are retried", func(t *testing.T) {
		biller.On("BillMonth", tenantID, valueobject.Period("2026-04")).Return(nil, errors.New("connection reset")).Once()
		task, err := queue.NewRecurringBillingTask(queue.RecurringBillingPayload{TenantID: tenantID, Month: "2026-04"})
		require.NoError(t, err)
		err = serve(t, c, task)
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
	biller.AssertExpectations(t)
}

func TestFiscalRetransmit(t *testing.T) {
	fiscalSvc := &mockRetransmitter{}
	c := &Consumer{Fiscal: fiscalSvc}
	tenantID := uuid.New()
	fiscalSvc.On("RetransmitPending", tenantID).Return(&fiscal.RetransmitSummary{Total: 3, Success: 2, Failed: 1}, nil)

	task, err := queue.NewFiscalRetransmitTask(queue.FiscalRetransmitPayload{TenantID: tenantID})
	require.NoError(t, err)
	require.NoError(t, serve(t, c, task))
	fiscalSvc.AssertExpectations(t)
}

func TestCommissionStatement(t *testing.T) {
	publisher := &mockPublisher{}
	c := &Consumer{Statements: publisher}
	tenantID, settlementID := uuid.New(), uuid.New()

	publisher.On("PublishStatement", tenantID, settlementID).Return(nil, shared.ErrNotFound).Once()
	task, err := queue.NewCommissionStatementTask(queue.CommissionStatementPayload{TenantID: tenantID, SettlementID: settlementID})
	require.NoError(t, err)
	assert.ErrorIs(t, serve(t, c, task), asynq.SkipRetry)

	publisher.On("PublishStatement", tenantID, settlementID).Return(nil, shared.ErrServiceUnavailable).Once()
	err = serve(t, c, task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestRegister_SkipsMissingServices(t *testing.T) {
	c := &Consumer{}
	task, err := queue.NewFiscalRetransmitTask(queue.FiscalRetransmitPayload{TenantID: uuid.New()})
	require.NoError(t, err)
	assert.Error(t, serve(t, c, task), "no handler registered")
}
