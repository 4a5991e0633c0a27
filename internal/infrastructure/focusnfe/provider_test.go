package focusnfe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := New(config.FiscalConfig{BaseURL: srv.URL + "/", Token: "tok", Timeout: 2 * time.Second, UF: "SP"}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(config.FiscalConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestEmitNFe(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/nfe", r.URL.Path)
		assert.Equal(t, "nfe_abc", r.URL.Query().Get("ref"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "tok", user)
		assert.Empty(t, pass)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"valor_total":"10.00"}`, string(body))
		_, _ = w.Write([]byte(`{"status":"autorizado","chave_nfe":"3526","numero":123,"serie":"1"}`))
	})

	res, err := p.EmitNFe(context.Background(), "nfe_abc", json.RawMessage(`{"valor_total":"10.00"}`))
	require.NoError(t, err)
	assert.Equal(t, fiscal.NoteStatusAuthorized, res.Status)
	assert.Equal(t, "nfe_abc", res.ProviderID)
	assert.Equal(t, "3526", res.AccessKey)
	assert.Equal(t, "123", res.Number)
	assert.Equal(t, "1", res.Series)
}

func TestEmitNFSe(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/nfse", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"f-77","status":"processando_autorizacao","numero":"9","codigo_verificacao":"XYZ"}`))
	})

	res, err := p.EmitNFSe(context.Background(), "nfse_abc", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "f-77", res.ProviderID)
	assert.Equal(t, fiscal.NoteStatusProcessing, res.Status)
	assert.Equal(t, "XYZ", res.VerificationCode)
}

func TestProviderErrors(t *testing.T) {
	t.Run("rejection carries the message", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"codigo":"erro_validacao","erros":[{"mensagem":"CNPJ do destinatário inválido"}]}`))
		})
		_, err := p.EmitNFe(context.Background(), "r", json.RawMessage(`{}`))
		rej, ok := fiscal.IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, "CNPJ do destinatário inválido", rej.Message)
		assert.False(t, fiscal.IsConnectionError(err))
	})

	t.Run("gateway errors are connection errors", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := p.EmitNFSe(context.Background(), "r", json.RawMessage(`{}`))
		assert.True(t, fiscal.IsConnectionError(err))
	})

	t.Run("refused connection", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		p, err := New(config.FiscalConfig{BaseURL: url, Token: "tok", Timeout: time.Second}, zap.NewNop())
		require.NoError(t, err)
		_, err = p.EmitNFe(context.Background(), "r", json.RawMessage(`{}`))
		assert.True(t, fiscal.IsConnectionError(err))
		assert.Error(t, p.HealthCheck(context.Background()))
	})
}

func TestHealthCheck(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/nfe/sefaz_status", r.URL.Path)
		assert.Equal(t, "SP", r.URL.Query().Get("uf"))
		_, _ = w.Write([]byte(`{"status_sefaz":"107"}`))
	})
	assert.NoError(t, p.HealthCheck(context.Background()))
}

func TestUnconfigured_QueuesEverything(t *testing.T) {
	var p fiscal.Provider = Unconfigured{}
	_, err := p.EmitNFe(context.Background(), "ref", json.RawMessage(`{}`))
	assert.True(t, fiscal.IsConnectionError(err))
	_, err = p.EmitNFSe(context.Background(), "ref", json.RawMessage(`{}`))
	assert.True(t, fiscal.IsConnectionError(err))
	assert.ErrorIs(t, p.HealthCheck(context.Background()), ErrMissingToken)
}
