package telemetry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/infrastructure/persistence"
	"github.com/calibra/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("calibra"))
	assert.NotNil(t, p.Tracer("calibra"))
	p.EnableSpanProfiles()
	assert.NoError(t, p.Shutdown(context.Background()))

	var nilProviders *Providers
	assert.NoError(t, nilProviders.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestBridgeLogger_WithoutProviders(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, BridgeLogger(base, nil, zapcore.InfoLevel))
	assert.Same(t, base, BridgeLogger(base, &Providers{}, zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: core, minLevel: zapcore.WarnLevel}
	log := zap.New(filtered).With(zap.String("tenant_id", "t-1"))

	log.Info("dropped")
	log.Warn("kept")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "t-1", entry.ContextMap()["tenant_id"])
}

func TestLabelPairs(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	pairs := labelPairs(map[string]string{
		ProfilingLabelRoute:    "/api/v1/work-orders/:id",
		ProfilingLabelMethod:   "GET",
		ProfilingLabelTenantID: "",
		"blob":                 string(long),
	})
	require.Len(t, pairs, 6)
	assert.Equal(t, []string{"blob", "method", "route"}, []string{pairs[0], pairs[2], pairs[4]})
	assert.Len(t, pairs[1], maxLabelValueLength)
}

func TestWithProfilingLabels_RunsFn(t *testing.T) {
	ran := false
	WithProfilingLabels(context.Background(), map[string]string{ProfilingLabelJob: "billing"}, func(context.Context) {
		ran = true
	})
	assert.True(t, ran)

	ran = false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { ran = true })
	assert.True(t, ran)
}

func TestStartProfiler_Disabled(t *testing.T) {
	p, err := StartProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Stop())

	_, err = StartProfiler(ProfilerConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestInstrumentDB_SlowQueries(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	core, logs := observer.New(zapcore.WarnLevel)

	require.NoError(t, InstrumentDB(db, DBTracingConfig{}, zap.New(core)), "disabled is a no-op")
	require.NoError(t, InstrumentDB(db, DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond,
		DBName:          "sqlite",
	}, zap.New(core)))

	var n int64
	require.NoError(t, db.Table("fiscal_notes").Count(&n).Error)
	assert.GreaterOrEqual(t, logs.FilterMessage("Slow query").Len(), 1)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestBusinessMetrics(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	tenantID := uuid.New()

	// one queued fiscal note and one overdue receivable
	note, err := fiscal.NewNote(tenantID, fiscal.NoteTypeNFSe, uuid.New(), decimal.NewFromInt(100))
	require.NoError(t, err)
	note.QueueOffline(json.RawMessage(`{}`), time.Now())
	require.NoError(t, persistence.NewGormFiscalNoteRepository(db).Save(ctx, note))

	ar, err := finance.NewAccountReceivable(tenantID, uuid.New(), "Calibração", decimal.NewFromInt(300), time.Now().AddDate(0, 0, -3))
	require.NoError(t, err)
	ar.Status = finance.StatusOverdue
	require.NoError(t, persistence.NewGormReceivableRepository(db).Save(ctx, ar))

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	bm, err := NewBusinessMetrics(provider.Meter("calibra"), NewGormBacklogProvider(db), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bm.Close() })

	c, err := customer.NewCustomer(tenantID, "Laboratório Ômega", "")
	require.NoError(t, err)
	require.NoError(t, bm.Handle(ctx, customer.NewCreatedEvent(c)))

	payment, err := ar.Pay(decimal.NewFromInt(120), "pix", time.Now(), nil, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, bm.Handle(ctx, finance.NewReceivablePaymentRecordedEvent(ar, payment)))

	data := collect(t, reader)

	created := data["calibra_customers_created_total"].(metricdata.Sum[int64])
	require.Len(t, created.DataPoints, 1)
	assert.Equal(t, int64(1), created.DataPoints[0].Value)

	amount := data["calibra_receivable_payments_amount"].(metricdata.Sum[float64])
	require.Len(t, amount.DataPoints, 1)
	assert.InDelta(t, 120.0, amount.DataPoints[0].Value, 0.001)

	pending := data["calibra_fiscal_contingency_pending"].(metricdata.Gauge[int64])
	require.Len(t, pending.DataPoints, 1)
	assert.Equal(t, int64(1), pending.DataPoints[0].Value)

	overdue := data["calibra_receivables_overdue"].(metricdata.Gauge[int64])
	require.Len(t, overdue.DataPoints, 1)
	assert.Equal(t, int64(1), overdue.DataPoints[0].Value)

	assert.Contains(t, bm.EventTypes(), finance.EventTypeReceivablePaymentRecorded)
}
