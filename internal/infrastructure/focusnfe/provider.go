// Package focusnfe talks to the Focus NFe REST API to emit NF-e and NFS-e notes.
package focusnfe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	nfePath         = "/v2/nfe"
	nfsePath        = "/v2/nfse"
	sefazStatusPath = "/v2/nfe/sefaz_status"
	defaultBaseURL  = "https://homologacao.focusnfe.com.br"
	maxResponseSize = 1 << 20
)

var ErrMissingToken = errors.New("focusnfe: missing API token")

// Provider implements fiscal.Provider over HTTP
type Provider struct {
	baseURL    string
	token      string
	uf         string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a provider from the fiscal configuration
func New(cfg config.FiscalConfig, logger *zap.Logger) (*Provider, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Provider{
		baseURL:    base,
		token:      cfg.Token,
		uf:         cfg.UF,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type emitResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	AccessKey        string `json:"chave_nfe"`
	Number           any    `json:"numero"`
	Series           any    `json:"serie"`
	VerificationCode string `json:"codigo_verificacao"`
	Message          string `json:"mensagem"`
	MessageSefaz     string `json:"mensagem_sefaz"`
	Errors           []struct {
		Message string `json:"mensagem"`
	} `json:"erros"`
}

// EmitNFe posts a product note
func (p *Provider) EmitNFe(ctx context.Context, reference string, payload json.RawMessage) (*fiscal.Result, error) {
	body, err := p.do(ctx, http.MethodPost, nfePath+"?ref="+url.QueryEscape(reference), payload)
	if err != nil {
		return nil, err
	}
	var resp emitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("focusnfe: failed to parse response: %w", err)
	}
	return &fiscal.Result{
		ProviderID: reference,
		Reference:  reference,
		Status:     fiscal.MapProviderStatus(strings.ToLower(resp.Status)),
		AccessKey:  resp.AccessKey,
		Number:     text(resp.Number),
		Series:     text(resp.Series),
	}, nil
}

// EmitNFSe posts a service note
func (p *Provider) EmitNFSe(ctx context.Context, reference string, payload json.RawMessage) (*fiscal.Result, error) {
	body, err := p.do(ctx, http.MethodPost, nfsePath+"?ref="+url.QueryEscape(reference), payload)
	if err != nil {
		return nil, err
	}
	var resp emitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("focusnfe: failed to parse response: %w", err)
	}
	id := resp.ID
	if id == "" {
		id = reference
	}
	return &fiscal.Result{
		ProviderID:       id,
		Reference:        reference,
		Status:           fiscal.MapProviderStatus(strings.ToLower(resp.Status)),
		Number:           text(resp.Number),
		VerificationCode: resp.VerificationCode,
	}, nil
}

// HealthCheck asks the provider for the SEFAZ status of the configured state
func (p *Provider) HealthCheck(ctx context.Context) error {
	path := sefazStatusPath
	if p.uf != "" {
		path += "?uf=" + url.QueryEscape(p.uf)
	}
	_, err := p.do(ctx, http.MethodGet, path, nil)
	return err
}

// do sends a request. Transport failures and gateway errors are reported as
// fiscal.ErrProviderUnreachable, other 4xx/5xx answers as a rejection.
func (p *Provider) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("focusnfe: failed to create request: %w", err)
	}
	req.SetBasicAuth(p.token, "")
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if unreachable(err) {
			return nil, fmt.Errorf("%w: %v", fiscal.ErrProviderUnreachable, err)
		}
		return nil, fmt.Errorf("focusnfe: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fiscal.ErrProviderUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return nil, fmt.Errorf("%w: HTTP %d", fiscal.ErrProviderUnreachable, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg := errorMessage(body)
		p.logger.Warn("focusnfe request refused",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, &fiscal.RejectionError{Message: msg}
	}
	return body, nil
}

// unreachable reports transport failures. A request cancelled by the caller
// is not one.
func unreachable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr)
}

func errorMessage(body []byte) string {
	var resp emitResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		switch {
		case resp.Message != "":
			return resp.Message
		case len(resp.Errors) > 0 && resp.Errors[0].Message != "":
			return resp.Errors[0].Message
		case resp.MessageSefaz != "":
			return resp.MessageSefaz
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "Fiscal provider refused the request"
	}
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return msg
}

// text renders numbers the API sends either as strings or as integers
func text(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return fmt.Sprintf("%.0f", n)
	}
	return fmt.Sprint(v)
}

var _ fiscal.Provider = (*Provider)(nil)

// Unconfigured stands in when no API token is set. Every note goes to
// contingency until a token is configured and the queue is retransmitted.
type Unconfigured struct{}

// EmitNFe implements fiscal.Provider
func (Unconfigured) EmitNFe(context.Context, string, json.RawMessage) (*fiscal.Result, error) {
	return nil, fiscal.ErrProviderUnreachable
}

// EmitNFSe implements fiscal.Provider
func (Unconfigured) EmitNFSe(context.Context, string, json.RawMessage) (*fiscal.Result, error) {
	return nil, fiscal.ErrProviderUnreachable
}

// HealthCheck implements fiscal.Provider
func (Unconfigured) HealthCheck(context.Context) error {
	return ErrMissingToken
}
