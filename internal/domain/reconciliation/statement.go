package reconciliation

import (
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Format identifies the layout of an imported bank file
type Format string

const (
	FormatOFX     Format = "ofx"
	FormatCNAB240 Format = "cnab240"
	FormatCNAB400 Format = "cnab400"
)

// BankStatement is one imported bank file and the header of its entries
type BankStatement struct {
	shared.TenantAggregateRoot
	Filename       string    `json:"filename"`
	Format         Format    `json:"format"`
	StorageKey     string    `json:"storage_key,omitempty"`
	TotalEntries   int       `json:"total_entries"`
	MatchedEntries int       `json:"matched_entries"`
	ImportedBy     uuid.UUID `json:"imported_by"`
	ImportedAt     time.Time `json:"imported_at"`
}

// NewBankStatement creates a statement header for a parsed file
func NewBankStatement(tenantID uuid.UUID, filename string, format Format, importedBy uuid.UUID) (*BankStatement, error) {
	if filename == "" {
		return nil, shared.NewValidationError("file", "File name is required")
	}
	s := &BankStatement{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, importedBy),
		Filename:            filename,
		Format:              format,
		ImportedBy:          importedBy,
		ImportedAt:          time.Now(),
	}
	return s, nil
}

// IncrementMatched bumps the matched counter
func (s *BankStatement) IncrementMatched() {
	s.MatchedEntries++
	s.Touch()
}

// DecrementMatched lowers the matched counter, never below zero
func (s *BankStatement) DecrementMatched() {
	if s.MatchedEntries > 0 {
		s.MatchedEntries--
	}
	s.Touch()
}

// SetMatched replaces the matched counter with a recomputed value
func (s *BankStatement) SetMatched(n int) {
	s.MatchedEntries = n
	s.Touch()
}
