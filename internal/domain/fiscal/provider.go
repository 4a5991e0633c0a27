package fiscal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/calibra/backend/internal/domain/shared"
)

// ErrProviderUnreachable marks transport failures that should send a note to contingency
var ErrProviderUnreachable = shared.NewDomainError(shared.CodeUnavailable, "Fiscal service unavailable")

// RejectionError is a provider answer that refuses the note
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// Result carries the identifiers the provider assigned to a note
type Result struct {
	ProviderID       string     `json:"provider_id"`
	Reference        string     `json:"reference"`
	Status           NoteStatus `json:"status"`
	AccessKey        string     `json:"access_key,omitempty"`
	Number           string     `json:"number,omitempty"`
	Series           string     `json:"series,omitempty"`
	VerificationCode string     `json:"verification_code,omitempty"`
}

// Provider emits fiscal notes on behalf of the tenant
type Provider interface {
	EmitNFe(ctx context.Context, reference string, payload json.RawMessage) (*Result, error)
	EmitNFSe(ctx context.Context, reference string, payload json.RawMessage) (*Result, error)
	// HealthCheck returns nil when the tax authority endpoint answers
	HealthCheck(ctx context.Context) error
}

// Emit dispatches to the call matching the note type
func Emit(ctx context.Context, p Provider, typ NoteType, reference string, payload json.RawMessage) (*Result, error) {
	if typ == NoteTypeNFSe {
		return p.EmitNFSe(ctx, reference, payload)
	}
	return p.EmitNFe(ctx, reference, payload)
}

// IsConnectionError reports whether err means the provider could not be reached
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrProviderUnreachable)
}

// IsRejection extracts a provider rejection
func IsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// MapProviderStatus converts the provider's status words
func MapProviderStatus(raw string) NoteStatus {
	switch raw {
	case "autorizado", "autorizada", "authorized":
		return NoteStatusAuthorized
	case "cancelado", "cancelada", "cancelled":
		return NoteStatusCancelled
	case "erro_autorizacao", "rejeitado", "rejeitada", "rejected":
		return NoteStatusRejected
	case "processando_autorizacao", "processing":
		return NoteStatusProcessing
	}
	return NoteStatusPending
}
