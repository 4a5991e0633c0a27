package bootstrap

import (
	"context"
	"errors"
	"fmt"

	commissionapp "github.com/calibra/backend/internal/application/commission"
	contractapp "github.com/calibra/backend/internal/application/contract"
	customerapp "github.com/calibra/backend/internal/application/customer"
	financeapp "github.com/calibra/backend/internal/application/finance"
	fiscalapp "github.com/calibra/backend/internal/application/fiscal"
	identityapp "github.com/calibra/backend/internal/application/identity"
	importapp "github.com/calibra/backend/internal/application/import"
	reconciliationapp "github.com/calibra/backend/internal/application/reconciliation"
	workorderapp "github.com/calibra/backend/internal/application/workorder"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/cache"
	"github.com/calibra/backend/internal/infrastructure/event"
	"github.com/calibra/backend/internal/infrastructure/focusnfe"
	"github.com/calibra/backend/internal/infrastructure/persistence"
	"github.com/calibra/backend/internal/infrastructure/printing"
	"github.com/calibra/backend/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services are the application services of every bounded context
type Services struct {
	Auth    *identityapp.AuthService
	Users   *identityapp.UserService
	Tenants *identityapp.TenantService

	Customers   *customerapp.Service
	WorkOrders  *workorderapp.Service
	Commissions *commissionapp.Service
	Settlements *commissionapp.SettlementService

	Receivables *financeapp.ReceivableService
	Payables    *financeapp.PayableService
	Payments    *financeapp.PaymentService
	Invoices    *financeapp.InvoiceService
	Expenses    *financeapp.ExpenseService

	Reconciliation *reconciliationapp.Service
	Contracts      *contractapp.Service
	Imports        *importapp.Service
	Fiscal         *fiscalapp.Service
}

func newServices(_ context.Context, a *App) (*Services, error) {
	cfg, log, db := a.Config, a.Logger, a.DB.DB
	tx := persistence.NewGormTransactionScope(db)
	repos := persistence.NewRepositorySet(db)
	users := persistence.NewGormUserRepository(db)
	tenants := persistence.NewGormTenantRepository(db)
	loc := cfg.Scheduler.Location()

	s := &Services{
		Auth:    identityapp.NewAuthService(users, tenants, a.JWT, a.Blacklist, identityapp.DefaultAuthServiceConfig(), log.Named("auth")),
		Users:   identityapp.NewUserService(users, a.Blacklist, cfg.JWT.RefreshTokenExpiration, log.Named("users")),
		Tenants: identityapp.NewTenantService(tenants, users, log.Named("tenants")),

		Customers:   customerapp.NewService(tx, repos, log.Named("customers")),
		WorkOrders:  workorderapp.NewService(tx, repos, log.Named("work_orders")),
		Commissions: commissionapp.NewService(tx, repos, log.Named("commissions")),

		Receivables: financeapp.NewReceivableService(tx, repos, log.Named("receivables")),
		Payables:    financeapp.NewPayableService(tx, repos, log.Named("payables")),
		Payments:    financeapp.NewPaymentService(tx, repos, log.Named("payments")),
		Invoices:    financeapp.NewInvoiceService(tx, repos, log.Named("invoices")),
		Expenses:    financeapp.NewExpenseService(tx, repos, log.Named("expenses")),

		Reconciliation: reconciliationapp.NewService(tx, repos, log.Named("reconciliation"), reconciliationapp.WithStore(a.Store)),
		Contracts:      contractapp.NewService(tx, repos, log.Named("contracts"), loc),
		Imports:        importapp.NewService(tx, repos, log.Named("imports")),
	}

	settlementOpts := []commissionapp.SettlementOption{
		commissionapp.WithStatementStore(a.Store),
		commissionapp.WithLocation(loc),
	}
	if cfg.Printing.Enabled {
		pdf := printing.NewChromedpRenderer(cfg.Printing, log.Named("printing"))
		a.onClose(func(context.Context) error { return pdf.Close() })
		statements, err := printing.NewStatementRenderer(pdf, loc)
		if err != nil {
			return nil, err
		}
		settlementOpts = append(settlementOpts, commissionapp.WithStatementRenderer(statements))
	}
	s.Settlements = commissionapp.NewSettlementService(tx, repos, users, log.Named("settlements"), settlementOpts...)

	var provider fiscal.Provider
	switch p, err := focusnfe.New(cfg.Fiscal, log.Named("focusnfe")); {
	case errors.Is(err, focusnfe.ErrMissingToken):
		log.Warn("Fiscal provider token not configured, notes will be queued in contingency")
		provider = focusnfe.Unconfigured{}
	case err != nil:
		return nil, fmt.Errorf("fiscal provider: %w", err)
	default:
		provider = p
	}
	s.Fiscal = fiscalapp.NewService(repos, provider, log.Named("fiscal"))

	s.Customers.SetEventPublisher(a.EventBus)
	s.WorkOrders.SetEventPublisher(a.EventBus)
	s.Receivables.SetEventPublisher(a.EventBus)
	s.Invoices.SetEventPublisher(a.EventBus)
	return s, nil
}

// subscribe attaches the event handlers. Commission handlers are wrapped so a
// redelivered event is applied once.
func (a *App) subscribe() error {
	var client redis.UniversalClient
	if a.Redis != nil {
		client = a.Redis
	}
	store := cache.NewIdempotencyStore(client, a.Config.Event.IdempotencyPrefix, a.Logger)
	a.onClose(func(context.Context) error { return store.Close() })

	idemCfg := shared.DefaultIdempotencyConfig()
	if a.Config.Event.IdempotencyTTL > 0 {
		idemCfg.TTL = a.Config.Event.IdempotencyTTL
	}
	handlers := map[string]shared.EventHandler{
		"commission.work_order": commissionapp.NewWorkOrderCommissionHandler(a.Services.Commissions, a.Logger),
		"commission.payment":    commissionapp.NewPaymentCommissionHandler(a.Services.Commissions, a.Logger),
	}
	for name, h := range handlers {
		a.EventBus.Subscribe(event.NewIdempotentHandler(name, h, store, a.Logger, event.WithIdempotencyConfig(idemCfg)))
	}

	if !a.Telemetry.Enabled() {
		return nil
	}
	metrics, err := telemetry.NewBusinessMetrics(a.Telemetry.Meter("calibra"), telemetry.NewGormBacklogProvider(a.DB.DB), a.Logger)
	if err != nil {
		return fmt.Errorf("business metrics: %w", err)
	}
	a.onClose(func(context.Context) error { return metrics.Close() })
	a.EventBus.Subscribe(metrics)
	a.Logger.Debug("Business metrics subscribed", zap.Strings("event_types", metrics.EventTypes()))
	return nil
}
