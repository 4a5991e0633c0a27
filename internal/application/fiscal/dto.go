package fiscal

import (
	"encoding/json"

	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmitRequest asks for a new NF-e or NFS-e. Payload holds the provider
// fields (items, services, tax codes) and is sent as is with the reference
// and total added.
type EmitRequest struct {
	Type        fiscal.NoteType `json:"type" binding:"required,oneof=nfe nfse"`
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	WorkOrderID *uuid.UUID      `json:"work_order_id"`
	Amount      decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	Payload     json.RawMessage `json:"payload" swaggertype:"object"`
}

// Outcome tells how an emission ended
type Outcome string

const (
	OutcomeAuthorized  Outcome = "authorized"
	OutcomeProcessing  Outcome = "processing"
	OutcomeContingency Outcome = "contingency"
	OutcomeRejected    Outcome = "rejected"
)

// EmitResult is the note and how its emission ended
type EmitResult struct {
	Note    *fiscal.Note `json:"note"`
	Outcome Outcome      `json:"outcome"`
	Message string       `json:"message"`
}
