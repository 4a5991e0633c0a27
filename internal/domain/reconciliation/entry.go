package reconciliation

import (
	"strings"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the direction of a bank movement
type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
)

// EntryStatus is the reconciliation state of a statement line
type EntryStatus string

const (
	EntryPending EntryStatus = "pending"
	EntryMatched EntryStatus = "matched"
	EntryIgnored EntryStatus = "ignored"
)

// MatchedType names the ledger document an entry is linked to
type MatchedType string

const (
	MatchedReceivable MatchedType = "receivable"
	MatchedPayable    MatchedType = "payable"
)

// NormalizeMatchedType accepts the aliases clients send for ledger documents
func NormalizeMatchedType(raw string) (MatchedType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "receivable", "account_receivable", "accounts_receivable":
		return MatchedReceivable, nil
	case "payable", "account_payable", "accounts_payable":
		return MatchedPayable, nil
	}
	return "", shared.NewValidationError("matched_type", "matched_type must be receivable or payable")
}

// Entry is a single line of a bank statement
type Entry struct {
	shared.BaseEntity
	TenantID          uuid.UUID       `json:"tenant_id"`
	StatementID       uuid.UUID       `json:"bank_statement_id"`
	Date              time.Time       `json:"date"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Type              EntryType       `json:"type"`
	Status            EntryStatus     `json:"status"`
	MatchedType       *MatchedType    `json:"matched_type,omitempty"`
	MatchedID         *uuid.UUID      `json:"matched_id,omitempty"`
	PossibleDuplicate bool            `json:"possible_duplicate"`
	ReconciledAt      *time.Time      `json:"reconciled_at,omitempty"`
	ReconciledBy      *uuid.UUID      `json:"reconciled_by,omitempty"`
}

// NewEntry builds a pending entry from a parsed line. The sign of the amount picks the type.
func NewEntry(tenantID, statementID uuid.UUID, line ParsedEntry) *Entry {
	typ := EntryCredit
	if line.Amount.IsNegative() {
		typ = EntryDebit
	}
	return &Entry{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		StatementID: statementID,
		Date:        line.Date,
		Description: line.Description,
		Amount:      line.Amount.Abs().Round(2),
		Type:        typ,
		Status:      EntryPending,
	}
}

// Match links a pending entry to a ledger document
func (e *Entry) Match(matchedType MatchedType, id uuid.UUID, by *uuid.UUID, now time.Time) error {
	if e.Status != EntryPending {
		return shared.NewDomainError(shared.CodeInvalidState, "Only pending entries can be matched").
			WithDetail("status", string(e.Status))
	}
	e.Status = EntryMatched
	e.MatchedType = &matchedType
	e.MatchedID = &id
	e.ReconciledAt = &now
	e.ReconciledBy = by
	e.UpdatedAt = now
	return nil
}

// Unmatch returns a matched entry to pending
func (e *Entry) Unmatch() error {
	if e.Status != EntryMatched {
		return shared.NewDomainError(shared.CodeInvalidState, "Only matched entries can be unmatched").
			WithDetail("status", string(e.Status))
	}
	e.reset()
	return nil
}

// Ignore marks an entry as not relevant for reconciliation.
// It returns true when the entry was matched before.
func (e *Entry) Ignore() (bool, error) {
	if e.Status == EntryIgnored {
		return false, shared.NewDomainError(shared.CodeInvalidState, "Entry is already ignored")
	}
	wasMatched := e.Status == EntryMatched
	e.reset()
	e.Status = EntryIgnored
	return wasMatched, nil
}

// Restore brings an ignored entry back to pending
func (e *Entry) Restore() error {
	if e.Status != EntryIgnored {
		return shared.NewDomainError(shared.CodeInvalidState, "Only ignored entries can be restored").
			WithDetail("status", string(e.Status))
	}
	e.reset()
	return nil
}

func (e *Entry) reset() {
	e.Status = EntryPending
	e.MatchedType = nil
	e.MatchedID = nil
	e.ReconciledAt = nil
	e.ReconciledBy = nil
	e.UpdatedAt = time.Now()
}
