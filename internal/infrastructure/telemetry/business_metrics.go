package telemetry

import (
	"context"

	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/workorder"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Attribute keys shared by HTTP and business instruments
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrTenantID       = attribute.Key("tenant_id")
	AttrEventType      = attribute.Key("event_type")
	AttrStatus         = attribute.Key("status")
)

// HTTPDurationBuckets are the request latency histogram boundaries in seconds
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// BacklogProvider reports work waiting across all tenants
type BacklogProvider interface {
	FiscalContingencyPending(ctx context.Context) (int64, error)
	OverdueReceivables(ctx context.Context) (int64, error)
}

// BusinessMetrics counts domain activity. It subscribes to the event bus
// and observes backlogs on each metrics collection.
type BusinessMetrics struct {
	logger *zap.Logger

	workOrderTransitions metric.Int64Counter
	customersCreated     metric.Int64Counter
	paymentsRecorded     metric.Int64Counter
	paymentsAmount       metric.Float64Counter

	registration metric.Registration
}

// NewBusinessMetrics creates the instruments. backlog may be nil.
func NewBusinessMetrics(meter metric.Meter, backlog BacklogProvider, logger *zap.Logger) (*BusinessMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &BusinessMetrics{logger: logger}

	var err error
	if m.workOrderTransitions, err = meter.Int64Counter("calibra_work_order_transitions_total",
		metric.WithDescription("Work order status transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}
	if m.customersCreated, err = meter.Int64Counter("calibra_customers_created_total",
		metric.WithDescription("Customers registered"),
		metric.WithUnit("{customer}"),
	); err != nil {
		return nil, err
	}
	if m.paymentsRecorded, err = meter.Int64Counter("calibra_receivable_payments_total",
		metric.WithDescription("Payments recorded against receivables"),
		metric.WithUnit("{payment}"),
	); err != nil {
		return nil, err
	}
	if m.paymentsAmount, err = meter.Float64Counter("calibra_receivable_payments_amount",
		metric.WithDescription("Amount received on receivables"),
		metric.WithUnit("BRL"),
	); err != nil {
		return nil, err
	}
	if backlog == nil {
		return m, nil
	}

	fiscalPending, err := meter.Int64ObservableGauge("calibra_fiscal_contingency_pending",
		metric.WithDescription("Fiscal notes waiting for retransmission"),
		metric.WithUnit("{note}"),
	)
	if err != nil {
		return nil, err
	}
	overdue, err := meter.Int64ObservableGauge("calibra_receivables_overdue",
		metric.WithDescription("Receivables past due"),
		metric.WithUnit("{receivable}"),
	)
	if err != nil {
		return nil, err
	}
	m.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		if n, err := backlog.FiscalContingencyPending(ctx); err != nil {
			m.logger.Warn("Failed to count fiscal backlog", zap.Error(err))
		} else {
			o.ObserveInt64(fiscalPending, n)
		}
		if n, err := backlog.OverdueReceivables(ctx); err != nil {
			m.logger.Warn("Failed to count overdue receivables", zap.Error(err))
		} else {
			o.ObserveInt64(overdue, n)
		}
		return nil
	}, fiscalPending, overdue)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes implements shared.EventHandler
func (m *BusinessMetrics) EventTypes() []string {
	return []string{
		workorder.EventTypeStarted,
		workorder.EventTypeCompleted,
		workorder.EventTypeDelivered,
		workorder.EventTypeInvoiced,
		workorder.EventTypeCancelled,
		customer.EventTypeCustomerCreated,
		finance.EventTypeReceivablePaymentRecorded,
	}
}

// Handle implements shared.EventHandler
func (m *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := AttrTenantID.String(event.TenantID().String())
	switch e := event.(type) {
	case *workorder.StatusChangedEvent:
		m.workOrderTransitions.Add(ctx, 1, metric.WithAttributes(
			tenant,
			AttrEventType.String(e.EventType()),
			AttrStatus.String(string(e.ToStatus)),
		))
	case *customer.CreatedEvent:
		m.customersCreated.Add(ctx, 1, metric.WithAttributes(tenant))
	case *finance.ReceivablePaymentRecordedEvent:
		attrs := metric.WithAttributes(tenant, AttrStatus.String(string(e.Status)))
		m.paymentsRecorded.Add(ctx, 1, attrs)
		m.paymentsAmount.Add(ctx, e.Amount.InexactFloat64(), attrs)
	}
	return nil
}

// Close stops the backlog observation
func (m *BusinessMetrics) Close() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

// GormBacklogProvider counts backlogs straight from the tables
type GormBacklogProvider struct {
	db *gorm.DB
}

// NewGormBacklogProvider creates a backlog provider
func NewGormBacklogProvider(db *gorm.DB) *GormBacklogProvider {
	return &GormBacklogProvider{db: db}
}

// FiscalContingencyPending counts queued notes of every tenant
func (p *GormBacklogProvider) FiscalContingencyPending(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Table("fiscal_notes").
		Where("contingency_mode = ? AND status = ?", true, fiscal.NoteStatusPending).
		Count(&n).Error
	return n, err
}

// OverdueReceivables counts overdue receivables of every tenant
func (p *GormBacklogProvider) OverdueReceivables(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Table("accounts_receivable").
		Where("status = ? AND deleted_at IS NULL", finance.StatusOverdue).
		Count(&n).Error
	return n, err
}
