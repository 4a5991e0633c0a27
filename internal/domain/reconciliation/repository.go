package reconciliation

import (
	"context"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryFilter defines filtering options for statement entries
type EntryFilter struct {
	shared.Filter
	StatementID       *uuid.UUID
	Status            *EntryStatus
	Type              *EntryType
	PossibleDuplicate *bool
}

// Summary aggregates reconciliation progress
type Summary struct {
	TotalEntries   int64           `json:"total_entries"`
	PendingCount   int64           `json:"pending_count"`
	MatchedCount   int64           `json:"matched_count"`
	IgnoredCount   int64           `json:"ignored_count"`
	MatchedPercent float64         `json:"matched_percent"`
	TotalCredits   decimal.Decimal `json:"total_credits"`
	TotalDebits    decimal.Decimal `json:"total_debits"`
	DuplicateCount int64           `json:"duplicate_count"`
}

// StatementRepository persists bank statements
type StatementRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankStatement, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BankStatement, int64, error)
	Save(ctx context.Context, s *BankStatement) error
	// Delete removes the statement together with its entries
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// EntryRepository persists statement entries
type EntryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Entry, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Entry, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter EntryFilter) ([]Entry, int64, error)
	FindPending(ctx context.Context, tenantID, statementID uuid.UUID) ([]Entry, error)
	CountMatched(ctx context.Context, tenantID, statementID uuid.UUID) (int64, error)
	// ExistsElsewhere reports whether another statement holds a line with the same date,
	// description and an amount within tolerance
	ExistsElsewhere(ctx context.Context, tenantID, statementID uuid.UUID, date time.Time, description string, amount, tolerance decimal.Decimal) (bool, error)
	Summary(ctx context.Context, tenantID uuid.UUID, statementID *uuid.UUID) (Summary, error)
	Save(ctx context.Context, e *Entry) error
	SaveAll(ctx context.Context, entries []*Entry) error
}
