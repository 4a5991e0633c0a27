package worker

import (
	"context"
	"errors"
	"fmt"

	commissionapp "github.com/calibra/backend/internal/application/commission"
	contractapp "github.com/calibra/backend/internal/application/contract"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/infrastructure/queue"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ContractBiller bills one tenant's recurring contracts
type ContractBiller interface {
	BillMonth(ctx context.Context, tenantID uuid.UUID, month valueobject.Period) (*contractapp.BillingResult, error)
}

// FiscalRetransmitter drains a tenant's fiscal contingency queue
type FiscalRetransmitter interface {
	RetransmitPending(ctx context.Context, tenantID uuid.UUID) (*fiscal.RetransmitSummary, error)
}

// StatementPublisher renders and stores settlement statements
type StatementPublisher interface {
	PublishStatement(ctx context.Context, tenantID, id uuid.UUID) (*commissionapp.StatementFile, error)
}

// Consumer handles the background tasks. A nil dependency leaves its task
// type unregistered.
type Consumer struct {
	Billing    ContractBiller
	Fiscal     FiscalRetransmitter
	Statements StatementPublisher
	Logger     *zap.Logger
}

// Register attaches the handlers to mux
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Billing != nil {
		mux.HandleFunc(queue.TaskRecurringBilling, c.handleRecurringBilling)
	}
	if c.Fiscal != nil {
		mux.HandleFunc(queue.TaskFiscalRetransmit, c.handleFiscalRetransmit)
	}
	if c.Statements != nil {
		mux.HandleFunc(queue.TaskCommissionStatement, c.handleCommissionStatement)
	}
}

func (c *Consumer) handleRecurringBilling(ctx context.Context, task *asynq.Task) error {
	var payload queue.RecurringBillingPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	month, err := valueobject.ParsePeriod(payload.Month)
	if err != nil || payload.TenantID == uuid.Nil {
		c.Logger.Warn("worker_recurring_billing_invalid_payload",
			zap.String("tenant_id", payload.TenantID.String()),
			zap.String("month", payload.Month))
		return fmt.Errorf("%w: invalid billing payload", asynq.SkipRetry)
	}
	res, err := c.Billing.BillMonth(ctx, payload.TenantID, month)
	if err != nil {
		return c.fail(task, payload.TenantID, err)
	}
	c.Logger.Info("worker_recurring_billing_done",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.String("month", res.Month),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped))
	return nil
}

func (c *Consumer) handleFiscalRetransmit(ctx context.Context, task *asynq.Task) error {
	var payload queue.FiscalRetransmitPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	summary, err := c.Fiscal.RetransmitPending(ctx, payload.TenantID)
	if err != nil {
		return c.fail(task, payload.TenantID, err)
	}
	c.Logger.Info("worker_fiscal_retransmit_done",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.Int("total", summary.Total),
		zap.Int("success", summary.Success),
		zap.Int("failed", summary.Failed),
		zap.String("message", summary.Message))
	return nil
}

func (c *Consumer) handleCommissionStatement(ctx context.Context, task *asynq.Task) error {
	var payload queue.CommissionStatementPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	file, err := c.Statements.PublishStatement(ctx, payload.TenantID, payload.SettlementID)
	if err != nil {
		return c.fail(task, payload.TenantID, err)
	}
	c.Logger.Info("worker_commission_statement_done",
		zap.String("tenant_id", payload.TenantID.String()),
		zap.String("settlement_id", payload.SettlementID.String()),
		zap.String("key", file.Key))
	return nil
}

// fail logs err and marks business errors as not retryable
func (c *Consumer) fail(task *asynq.Task, tenantID uuid.UUID, err error) error {
	c.Logger.Warn("worker_task_failed",
		zap.String("task", task.Type()),
		zap.String("tenant_id", tenantID.String()),
		zap.Error(err))
	if permanent(err) {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

func permanent(err error) bool {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code != shared.CodeUnavailable
}
