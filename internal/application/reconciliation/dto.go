package reconciliation

import (
	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/google/uuid"
)

// ImportResult is returned after a bank file was parsed and stored
type ImportResult struct {
	Statement  *reconciliation.BankStatement `json:"statement"`
	Duplicates int                           `json:"duplicates"`
}

// EntryListFilter holds query parameters for listing statement entries
type EntryListFilter struct {
	Page              int        `form:"page"`
	PageSize          int        `form:"page_size"`
	Search            string     `form:"search"`
	StatementID       *uuid.UUID `form:"bank_statement_id,parser=encoding.TextUnmarshaler"`
	Status            string     `form:"status" binding:"omitempty,oneof=pending matched ignored"`
	Type              string     `form:"type" binding:"omitempty,oneof=credit debit"`
	PossibleDuplicate *bool      `form:"possible_duplicate"`
}

// MatchRequest links an entry to a receivable or payable
type MatchRequest struct {
	MatchedType string    `json:"matched_type" binding:"required"`
	MatchedID   uuid.UUID `json:"matched_id" binding:"required"`
}

// BulkAction names an operation applied to many entries
type BulkAction string

const (
	BulkAutoMatch BulkAction = "auto-match"
	BulkIgnore    BulkAction = "ignore"
	BulkUnmatch   BulkAction = "unmatch"
)

// BulkRequest applies one action to up to 200 entries
type BulkRequest struct {
	Action   string      `json:"action" binding:"required,oneof=auto-match ignore unmatch"`
	EntryIDs []uuid.UUID `json:"entry_ids" binding:"required,min=1,max=200"`
}

// BulkResult counts the entries an action changed
type BulkResult struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// AutoMatchResult counts the entries matched by AutoMatch
type AutoMatchResult struct {
	Matched        int `json:"matched"`
	MatchedEntries int `json:"matched_entries"`
	TotalEntries   int `json:"total_entries"`
}
