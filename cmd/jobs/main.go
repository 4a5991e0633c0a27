// Command jobs runs one scheduled job on demand, for every active tenant or
// for a single one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calibra/backend/internal/bootstrap"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const usage = `Usage:
  jobs [flags] bill-recurring
  jobs [flags] overdue-refresh
  jobs [flags] fiscal-retransmit

Flags:
`

func main() {
	tenant := flag.String("tenant", "", "run for this tenant id only")
	month := flag.String("month", "", "billing month YYYY-MM (bill-recurring, default current month)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	base, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(base) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, base, "jobs")
	if err != nil {
		base.Fatal("Failed to initialize application", zap.Error(err))
	}
	runErr := run(ctx, app, flag.Arg(0), *tenant, *month)

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		app.Logger.Error("Error releasing resources", zap.Error(err))
	}
	if runErr != nil {
		app.Logger.Fatal("Job failed", zap.String("job", flag.Arg(0)), zap.Error(runErr))
	}
}

func run(ctx context.Context, app *bootstrap.App, job, tenant, month string) error {
	var fn func(context.Context, uuid.UUID) error
	switch job {
	case bootstrap.JobRecurringBilling:
		period := valueobject.PeriodOf(time.Now().In(app.Config.Scheduler.Location()))
		if month != "" {
			p, err := valueobject.ParsePeriod(month)
			if err != nil {
				return err
			}
			period = p
		}
		fn = func(ctx context.Context, id uuid.UUID) error { return app.BillMonth(ctx, id, period) }
	case bootstrap.JobOverdueRefresh:
		fn = app.RefreshOverdue
	case bootstrap.JobFiscalRetransmit:
		fn = app.RetransmitFiscal
	default:
		return fmt.Errorf("unknown job %q", job)
	}

	tenants, err := targetTenants(ctx, app, tenant)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range tenants {
		if err := fn(ctx, id); err != nil {
			app.Logger.Error("Job failed for tenant", zap.String("job", job), zap.String("tenant_id", id.String()), zap.Error(err))
			errs = append(errs, fmt.Errorf("tenant %s: %w", id, err))
		}
	}
	app.Logger.Info("Job finished", zap.String("job", job), zap.Int("tenants", len(tenants)), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

func targetTenants(ctx context.Context, app *bootstrap.App, tenant string) ([]uuid.UUID, error) {
	if tenant == "" {
		return app.Services.Tenants.ActiveTenantIDs(ctx)
	}
	id, err := uuid.Parse(tenant)
	if err != nil {
		return nil, fmt.Errorf("invalid -tenant: %w", err)
	}
	if err := app.Services.Tenants.ValidateTenant(ctx, id); err != nil {
		return nil, err
	}
	return []uuid.UUID{id}, nil
}
