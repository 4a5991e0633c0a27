package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/infrastructure/queue"
	"github.com/calibra/backend/internal/infrastructure/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduled job names
const (
	JobRecurringBilling = "bill-recurring"
	JobOverdueRefresh   = "overdue-refresh"
	JobFiscalRetransmit = "fiscal-retransmit"
)

// Jobs returns the periodic jobs. With the queue enabled billing and fiscal
// retransmission are enqueued for the worker, otherwise they run inline.
func (a *App) Jobs() []scheduler.Job {
	cfg := a.Config.Scheduler
	return []scheduler.Job{
		{
			Name:     JobRecurringBilling,
			Schedule: scheduler.Monthly{Day: cfg.BillingDay, Hour: cfg.BillingHour},
			Run: func(ctx context.Context, tenantID uuid.UUID, now time.Time) error {
				return a.BillMonth(ctx, tenantID, valueobject.PeriodOf(now))
			},
		},
		{
			Name:     JobOverdueRefresh,
			Schedule: scheduler.Daily{Hour: 0},
			Run: func(ctx context.Context, tenantID uuid.UUID, _ time.Time) error {
				return a.RefreshOverdue(ctx, tenantID)
			},
		},
		{
			Name:     JobFiscalRetransmit,
			Schedule: scheduler.Every{Interval: cfg.FiscalRetransmitInterval},
			Run: func(ctx context.Context, tenantID uuid.UUID, _ time.Time) error {
				return a.RetransmitFiscal(ctx, tenantID)
			},
		},
	}
}

// BillMonth bills one tenant's contracts for month
func (a *App) BillMonth(ctx context.Context, tenantID uuid.UUID, month valueobject.Period) error {
	if a.Queue.Enabled() {
		return a.Queue.EnqueueRecurringBilling(queue.RecurringBillingPayload{TenantID: tenantID, Month: string(month)})
	}
	res, err := a.Services.Contracts.BillMonth(ctx, tenantID, month)
	if err != nil {
		return err
	}
	a.Logger.Info("Recurring contracts billed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("month", res.Month),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped))
	return nil
}

// RefreshOverdue marks one tenant's past-due receivables and payables as overdue
func (a *App) RefreshOverdue(ctx context.Context, tenantID uuid.UUID) error {
	receivables, err := a.Services.Receivables.RefreshOverdue(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("receivables: %w", err)
	}
	payables, err := a.Services.Payables.RefreshOverdue(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("payables: %w", err)
	}
	if receivables+payables > 0 {
		a.Logger.Info("Documents marked overdue",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("receivables", receivables),
			zap.Int("payables", payables))
	}
	return nil
}

// RetransmitFiscal drains one tenant's fiscal contingency queue
func (a *App) RetransmitFiscal(ctx context.Context, tenantID uuid.UUID) error {
	if a.Queue.Enabled() {
		return a.Queue.EnqueueFiscalRetransmit(queue.FiscalRetransmitPayload{TenantID: tenantID}, 0)
	}
	summary, err := a.Services.Fiscal.RetransmitPending(ctx, tenantID)
	if err != nil {
		return err
	}
	if summary.Total > 0 {
		a.Logger.Info("Fiscal contingency retransmitted",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("total", summary.Total),
			zap.Int("success", summary.Success),
			zap.Int("failed", summary.Failed))
	}
	return nil
}

// NewScheduler builds the cron trigger over the active tenants
func (a *App) NewScheduler() (*scheduler.CronTrigger, error) {
	cfg := a.Config.Scheduler
	return scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
		CheckInterval: time.Minute,
		Location:      cfg.Location(),
		JobTimeout:    cfg.JobTimeout,
	}, a.Services.Tenants, a.Logger.Named("scheduler"), a.Jobs()...)
}
