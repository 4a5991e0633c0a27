package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	appFiscal "github.com/calibra/backend/internal/application/fiscal"
	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedProvider answers every emission with the same result
type scriptedProvider struct {
	result *fiscal.Result
	err    error
	health error
}

func (p *scriptedProvider) EmitNFe(context.Context, string, json.RawMessage) (*fiscal.Result, error) {
	return p.result, p.err
}

func (p *scriptedProvider) EmitNFSe(context.Context, string, json.RawMessage) (*fiscal.Result, error) {
	return p.result, p.err
}

func (p *scriptedProvider) HealthCheck(context.Context) error { return p.health }

func fiscalHarness(t *testing.T, p *scriptedProvider) (*harness, *customer.Customer) {
	h := newHarness(t)
	fh := NewFiscalHandler(appFiscal.NewService(h.repos, p, zap.NewNop()))
	h.engine.POST("/fiscal/notes", fh.Emit)
	h.engine.GET("/fiscal/notes", fh.List)
	h.engine.GET("/fiscal/contingency/status", fh.ContingencyStatus)

	c, err := customer.NewCustomer(h.tenantID, "Laboratório Delta", "12345678000190")
	require.NoError(t, err)
	require.NoError(t, h.repos.Customers().Save(context.Background(), c))
	return h, c
}

func TestFiscalHandler_EmitOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		provider *scriptedProvider
		status   int
		outcome  appFiscal.Outcome
	}{
		{
			"authorized",
			&scriptedProvider{result: &fiscal.Result{ProviderID: "p-1", Status: fiscal.NoteStatusAuthorized, Number: "42"}},
			http.StatusCreated, appFiscal.OutcomeAuthorized,
		},
		{
			"processing",
			&scriptedProvider{result: &fiscal.Result{ProviderID: "p-2", Status: fiscal.NoteStatusProcessing}},
			http.StatusAccepted, appFiscal.OutcomeProcessing,
		},
		{
			"provider down",
			&scriptedProvider{err: fmt.Errorf("dial tcp: %w", fiscal.ErrProviderUnreachable)},
			http.StatusAccepted, appFiscal.OutcomeContingency,
		},
		{
			"rejected",
			&scriptedProvider{err: &fiscal.RejectionError{Message: "Rejeição: CFOP inválido"}},
			http.StatusUnprocessableEntity, appFiscal.OutcomeRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, c := fiscalHarness(t, tt.provider)
			rec := h.do(http.MethodPost, "/fiscal/notes", map[string]any{
				"type":        "nfse",
				"customer_id": c.ID,
				"amount":      "350.00",
				"payload":     map[string]any{"servicos": []any{}},
			})
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var res appFiscal.EmitResult
			resp := decode(t, rec, &res)
			assert.Equal(t, tt.outcome, res.Outcome)
			require.NotNil(t, res.Note)
			assert.Equal(t, h.tenantID, res.Note.TenantID)
			if tt.outcome == appFiscal.OutcomeRejected {
				require.NotNil(t, resp.Error)
				assert.Equal(t, "Rejeição: CFOP inválido", resp.Error.Message)
			}
		})
	}
}

func TestFiscalHandler_ContingencyStatus(t *testing.T) {
	p := &scriptedProvider{err: fiscal.ErrProviderUnreachable, health: fiscal.ErrProviderUnreachable}
	h, c := fiscalHarness(t, p)
	rec := h.do(http.MethodPost, "/fiscal/notes", map[string]any{"type": "nfe", "customer_id": c.ID, "amount": "10"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var status fiscal.ContingencyStatus
	decode(t, h.do(http.MethodGet, "/fiscal/contingency/status", nil), &status)
	assert.Equal(t, int64(1), status.PendingCount)
	assert.False(t, status.ServiceAvailable)
}

func TestFiscalHandler_EmitValidation(t *testing.T) {
	h, c := fiscalHarness(t, &scriptedProvider{})

	rec := h.do(http.MethodPost, "/fiscal/notes", map[string]any{"type": "nfc", "customer_id": c.ID, "amount": "10"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "type", decode(t, rec, nil).Error.Fields[0].Field)
}
