package fiscal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NoteType distinguishes product (NF-e) from service (NFS-e) notes
type NoteType string

const (
	NoteTypeNFe  NoteType = "nfe"
	NoteTypeNFSe NoteType = "nfse"
)

// IsValid checks if the note type is known
func (t NoteType) IsValid() bool {
	return t == NoteTypeNFe || t == NoteTypeNFSe
}

// NoteStatus is the authorization state of a fiscal note
type NoteStatus string

const (
	NoteStatusPending    NoteStatus = "pending"
	NoteStatusProcessing NoteStatus = "processing"
	NoteStatusAuthorized NoteStatus = "authorized"
	NoteStatusRejected   NoteStatus = "rejected"
	NoteStatusCancelled  NoteStatus = "cancelled"
)

// Note is a fiscal document sent to the tax authority through a provider
type Note struct {
	shared.TenantAggregateRoot
	Type             NoteType        `json:"type"`
	WorkOrderID      *uuid.UUID      `json:"work_order_id,omitempty"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	Amount           decimal.Decimal `json:"amount"`
	Status           NoteStatus      `json:"status"`
	Reference        string          `json:"reference"`
	ContingencyMode  bool            `json:"contingency_mode"`
	OfflinePayload   json.RawMessage `json:"-"`
	QueuedAt         *time.Time      `json:"queued_at,omitempty"`
	ProviderID       string          `json:"provider_id,omitempty"`
	AccessKey        string          `json:"access_key,omitempty"`
	Number           string          `json:"number,omitempty"`
	Series           string          `json:"series,omitempty"`
	VerificationCode string          `json:"verification_code,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	AuthorizedAt     *time.Time      `json:"authorized_at,omitempty"`
}

// NewNote creates a pending note. The reference is what the provider indexes the note by.
func NewNote(tenantID uuid.UUID, typ NoteType, customerID uuid.UUID, amount decimal.Decimal) (*Note, error) {
	if !typ.IsValid() {
		return nil, shared.NewValidationError("type", "Type must be nfe or nfse")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer is required")
	}
	if amount.LessThan(valueobject.Cent()) {
		return nil, shared.NewValidationError("amount", "Amount must be at least 0.01")
	}
	n := &Note{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                typ,
		CustomerID:          customerID,
		Amount:              valueobject.Round2(amount),
		Status:              NoteStatusPending,
	}
	n.Reference = fmt.Sprintf("%s_%s", typ, n.ID.String()[:8])
	return n, nil
}

// IsQueued reports whether the note waits for retransmission
func (n *Note) IsQueued() bool {
	return n.ContingencyMode && n.Status == NoteStatusPending
}

// QueueOffline stores the payload for later retransmission
func (n *Note) QueueOffline(payload json.RawMessage, now time.Time) {
	n.Status = NoteStatusPending
	n.ContingencyMode = true
	n.OfflinePayload = payload
	n.QueuedAt = &now
	n.Touch()
}

// ApplyResult stores what the provider returned for an accepted note
func (n *Note) ApplyResult(r *Result, now time.Time) {
	n.Status = r.Status
	if n.Status == "" || n.Status == NoteStatusPending {
		n.Status = NoteStatusProcessing
	}
	n.ProviderID = r.ProviderID
	n.AccessKey = r.AccessKey
	n.Number = r.Number
	n.Series = r.Series
	n.VerificationCode = r.VerificationCode
	n.ErrorMessage = ""
	n.ContingencyMode = false
	if n.Status == NoteStatusAuthorized {
		n.AuthorizedAt = &now
	}
	n.Touch()
}

// Reject records a provider rejection
func (n *Note) Reject(message string) {
	n.Status = NoteStatusRejected
	n.ErrorMessage = message
	n.ContingencyMode = false
	n.Touch()
}

// RecordRetransmitFailure keeps the note queued with the last error
func (n *Note) RecordRetransmitFailure(message string) {
	n.ErrorMessage = message
	n.Touch()
}
