package fiscal

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence"
	"github.com/calibra/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) EmitNFe(ctx context.Context, reference string, payload json.RawMessage) (*fiscal.Result, error) {
	args := m.Called(ctx, reference, payload)
	if r, ok := args.Get(0).(*fiscal.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) EmitNFSe(ctx context.Context, reference string, payload json.RawMessage) (*fiscal.Result, error) {
	args := m.Called(ctx, reference, payload)
	if r, ok := args.Get(0).(*fiscal.Result); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var unreachable = fmt.Errorf("dial tcp: connection refused: %w", fiscal.ErrProviderUnreachable)

type fixture struct {
	svc      *Service
	provider *mockProvider
	notes    *persistence.GormFiscalNoteRepository
	tenantID uuid.UUID
	customer uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &fixture{
		provider: &mockProvider{},
		notes:    persistence.NewGormFiscalNoteRepository(db),
		tenantID: uuid.New(),
	}
	f.svc = NewService(persistence.NewRepositorySet(db), f.provider, zap.NewNop())
	f.svc.now = func() time.Time { return time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC) }
	c, err := customer.NewCustomer(f.tenantID, "Laboratório Delta", "12345678000190")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCustomerRepository(db).Save(context.Background(), c))
	f.customer = c.ID
	return f
}

func (f *fixture) emit(t *testing.T, typ fiscal.NoteType) *EmitResult {
	t.Helper()
	res, err := f.svc.Emit(context.Background(), f.tenantID, uuid.New(), EmitRequest{
		Type:       typ,
		CustomerID: f.customer,
		Amount:     decimal.RequireFromString("350.00"),
		Payload:    json.RawMessage(`{"servicos":[{"descricao":"Calibração"}]}`),
	})
	require.NoError(t, err)
	return res
}

func TestEmit_Authorized(t *testing.T) {
	f := newFixture(t)
	f.provider.On("EmitNFSe", mock.Anything, mock.Anything, mock.Anything).
		Return(&fiscal.Result{ProviderID: "p-1", Status: fiscal.NoteStatusAuthorized, Number: "42", VerificationCode: "VC9"}, nil)

	res := f.emit(t, fiscal.NoteTypeNFSe)
	assert.Equal(t, OutcomeAuthorized, res.Outcome)

	stored, err := f.svc.Get(context.Background(), f.tenantID, res.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, fiscal.NoteStatusAuthorized, stored.Status)
	assert.Equal(t, "VC9", stored.VerificationCode)
	assert.False(t, stored.ContingencyMode)

	payload := f.provider.Calls[0].Arguments.Get(2).(json.RawMessage)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(payload, &fields))
	assert.Equal(t, res.Note.Reference, fields["ref"])
	assert.Equal(t, "350.00", fields["valor_total"])
	assert.Contains(t, fields, "servicos")
}

func TestEmit_ConnectionErrorQueuesOffline(t *testing.T) {
	f := newFixture(t)
	f.provider.On("EmitNFe", mock.Anything, mock.Anything, mock.Anything).Return(nil, unreachable)

	res := f.emit(t, fiscal.NoteTypeNFe)
	assert.Equal(t, OutcomeContingency, res.Outcome)

	stored, err := f.svc.Get(context.Background(), f.tenantID, res.Note.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsQueued())
	assert.NotEmpty(t, stored.OfflinePayload)
	require.NotNil(t, stored.QueuedAt)

	count, err := f.svc.PendingCount(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEmit_Rejected(t *testing.T) {
	f := newFixture(t)
	f.provider.On("EmitNFe", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &fiscal.RejectionError{Message: "Rejeição: CFOP inválido"})

	res := f.emit(t, fiscal.NoteTypeNFe)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, fiscal.NoteStatusRejected, res.Note.Status)
	assert.Equal(t, "Rejeição: CFOP inválido", res.Note.ErrorMessage)
}

func TestEmit_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Emit(context.Background(), f.tenantID, uuid.New(), EmitRequest{
		Type: fiscal.NoteTypeNFe, CustomerID: uuid.New(), Amount: decimal.NewFromInt(10),
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeValidation, de.Code)

	_, err = f.svc.Emit(context.Background(), f.tenantID, uuid.New(), EmitRequest{
		Type: fiscal.NoteTypeNFe, CustomerID: f.customer, Amount: decimal.NewFromInt(10), Payload: json.RawMessage(`[1]`),
	})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "payload", de.Details["field"])
	f.provider.AssertNotCalled(t, "EmitNFe", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetransmitPending(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing queued", func(t *testing.T) {
		f := newFixture(t)
		summary, err := f.svc.RetransmitPending(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)
		assert.Empty(t, summary.Results)
		f.provider.AssertNotCalled(t, "HealthCheck", mock.Anything)
	})

	t.Run("provider unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.provider.On("EmitNFe", mock.Anything, mock.Anything, mock.Anything).Return(nil, unreachable).Once()
		f.emit(t, fiscal.NoteTypeNFe)
		f.provider.On("HealthCheck", mock.Anything).Return(unreachable)

		summary, err := f.svc.RetransmitPending(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Total)
		assert.Zero(t, summary.Success)
		assert.Zero(t, summary.Failed)
		assert.Equal(t, "fiscal service unavailable", summary.Message)
	})

	t.Run("sends every note by type", func(t *testing.T) {
		f := newFixture(t)
		f.provider.On("EmitNFe", mock.Anything, mock.Anything, mock.Anything).Return(nil, unreachable).Once()
		f.provider.On("EmitNFSe", mock.Anything, mock.Anything, mock.Anything).Return(nil, unreachable).Once()
		nfe := f.emit(t, fiscal.NoteTypeNFe)
		nfse := f.emit(t, fiscal.NoteTypeNFSe)

		f.provider.On("HealthCheck", mock.Anything).Return(nil)
		f.provider.On("EmitNFe", mock.Anything, nfe.Note.Reference, mock.Anything).
			Return(&fiscal.Result{ProviderID: "prov-123", Status: fiscal.NoteStatusAuthorized, AccessKey: "3526"}, nil)
		f.provider.On("EmitNFSe", mock.Anything, nfse.Note.Reference, mock.Anything).
			Return(nil, &fiscal.RejectionError{Message: "SEFAZ rejeitou"})

		summary, err := f.svc.RetransmitPending(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, 1, summary.Success)
		assert.Equal(t, 1, summary.Failed)

		ok, err := f.svc.Get(ctx, f.tenantID, nfe.Note.ID)
		require.NoError(t, err)
		assert.Equal(t, fiscal.NoteStatusAuthorized, ok.Status)
		assert.False(t, ok.ContingencyMode)
		assert.Equal(t, "prov-123", ok.ProviderID)

		failed, err := f.svc.Get(ctx, f.tenantID, nfse.Note.ID)
		require.NoError(t, err)
		assert.True(t, failed.IsQueued())
		assert.Equal(t, "SEFAZ rejeitou", failed.ErrorMessage)

		all, err := f.svc.RetransmitAllTenants(ctx)
		require.NoError(t, err)
		require.Contains(t, all, f.tenantID)
		assert.Equal(t, 1, all[f.tenantID].Total)
	})
}

func TestRetransmitNote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	note, err := fiscal.NewNote(f.tenantID, fiscal.NoteTypeNFe, f.customer, decimal.NewFromInt(10))
	require.NoError(t, err)
	note.QueueOffline(nil, time.Now())
	require.NoError(t, f.notes.Save(ctx, note))

	res, err := f.svc.RetransmitNote(ctx, f.tenantID, note.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "payload")

	done, err := fiscal.NewNote(f.tenantID, fiscal.NoteTypeNFe, f.customer, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, f.notes.Save(ctx, done))
	_, err = f.svc.RetransmitNote(ctx, f.tenantID, done.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.provider.On("HealthCheck", mock.Anything).Return(nil)
	st, err := f.svc.Status(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Zero(t, st.PendingCount)
	assert.True(t, st.ServiceAvailable)
}
