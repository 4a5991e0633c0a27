// Package reconciliation imports bank statements and matches their lines
// against receivables and payables.
package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// suggestionSpread is the relative open-amount window searched for suggestions
	suggestionSpread = "0.2"
	// suggestionPool caps the candidates scored per entry
	suggestionPool = 20
)

// Option configures a Service
type Option func(*Service)

// WithStore keeps the original bank files in store
func WithStore(store storage.Store) Option {
	return func(s *Service) { s.store = store }
}

// Service handles bank statement import and reconciliation
type Service struct {
	tx     txn.TransactionScope
	repos  txn.Repositories
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a reconciliation service
func NewService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{tx: tx, repos: repos, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import parses a bank file, flags lines already seen in other statements
// and stores the original file
func (s *Service) Import(ctx context.Context, tenantID, userID uuid.UUID, filename string, content []byte) (*ImportResult, error) {
	if len(content) == 0 {
		return nil, shared.NewValidationError("file", "File is empty")
	}
	format, err := reconciliation.DetectFormat(filename, content)
	if err != nil {
		return nil, err
	}
	now := s.now()
	lines, err := reconciliation.Parse(format, content, now)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("file", "No movements found in the file")
	}

	statement, err := reconciliation.NewBankStatement(tenantID, filename, format, userID)
	if err != nil {
		return nil, err
	}
	statement.ImportedAt = now
	statement.TotalEntries = len(lines)

	if s.store != nil {
		key := storage.TenantKey(tenantID, "bank-statements", filename, now)
		if err := s.store.Put(ctx, key, content, "application/octet-stream"); err != nil {
			return nil, shared.ErrServiceUnavailable.WithDetail("storage", err.Error())
		}
		statement.StorageKey = key
	}

	tolerance := decimal.RequireFromString(reconciliation.DuplicateTolerance)
	duplicates := 0
	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if err := repos.Statements().Save(ctx, statement); err != nil {
			return err
		}
		entries := make([]*reconciliation.Entry, 0, len(lines))
		for _, line := range lines {
			entry := reconciliation.NewEntry(tenantID, statement.ID, line)
			dup, err := repos.Entries().ExistsElsewhere(ctx, tenantID, statement.ID, entry.Date, entry.Description, entry.Amount, tolerance)
			if err != nil {
				return err
			}
			if dup {
				entry.PossibleDuplicate = true
				duplicates++
			}
			entries = append(entries, entry)
		}
		return repos.Entries().SaveAll(ctx, entries)
	})
	if err != nil {
		s.discard(ctx, statement.StorageKey)
		return nil, err
	}

	s.logger.Info("bank statement imported",
		zap.String("tenant_id", tenantID.String()),
		zap.String("statement_id", statement.ID.String()),
		zap.String("format", string(format)),
		zap.Int("entries", len(lines)),
		zap.Int("duplicates", duplicates))
	return &ImportResult{Statement: statement, Duplicates: duplicates}, nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove stored bank file", zap.String("key", key), zap.Error(err))
	}
}

// GetStatement returns one statement
func (s *Service) GetStatement(ctx context.Context, tenantID, id uuid.UUID) (*reconciliation.BankStatement, error) {
	return s.repos.Statements().FindByID(ctx, tenantID, id)
}

// ListStatements returns a page of statements, newest first
func (s *Service) ListStatements(ctx context.Context, tenantID uuid.UUID, f shared.Filter) (shared.Paginated[reconciliation.BankStatement], error) {
	rows, total, err := s.repos.Statements().FindAll(ctx, tenantID, f)
	if err != nil {
		return shared.Paginated[reconciliation.BankStatement]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), f.Limit()), nil
}

// DeleteStatement removes a statement, its entries and its stored file
func (s *Service) DeleteStatement(ctx context.Context, tenantID, id uuid.UUID) error {
	statement, err := s.repos.Statements().FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repos.Statements().Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.discard(ctx, statement.StorageKey)
	return nil
}

// ListEntries returns a page of entries
func (s *Service) ListEntries(ctx context.Context, tenantID uuid.UUID, f EntryListFilter) (shared.Paginated[reconciliation.Entry], error) {
	filter := reconciliation.EntryFilter{
		Filter:            shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search},
		StatementID:       f.StatementID,
		PossibleDuplicate: f.PossibleDuplicate,
	}
	if f.Status != "" {
		st := reconciliation.EntryStatus(f.Status)
		filter.Status = &st
	}
	if f.Type != "" {
		typ := reconciliation.EntryType(f.Type)
		filter.Type = &typ
	}
	rows, total, err := s.repos.Entries().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[reconciliation.Entry]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// Match links a pending entry to a receivable or payable of the same tenant
func (s *Service) Match(ctx context.Context, tenantID, userID, entryID uuid.UUID, req MatchRequest) (*reconciliation.Entry, error) {
	matchedType, err := reconciliation.NormalizeMatchedType(req.MatchedType)
	if err != nil {
		return nil, err
	}
	var entry *reconciliation.Entry
	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		entry, err = repos.Entries().FindByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		if err := ensureTarget(ctx, repos, tenantID, matchedType, req.MatchedID); err != nil {
			return err
		}
		return s.match(ctx, repos, entry, matchedType, req.MatchedID, &userID)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) match(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry, matchedType reconciliation.MatchedType, id uuid.UUID, by *uuid.UUID) error {
	if err := entry.Match(matchedType, id, by, s.now()); err != nil {
		return err
	}
	if err := repos.Entries().Save(ctx, entry); err != nil {
		return err
	}
	return s.bumpMatched(ctx, repos, entry, 1)
}

func (s *Service) bumpMatched(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry, delta int) error {
	statement, err := repos.Statements().FindByID(ctx, entry.TenantID, entry.StatementID)
	if err != nil {
		return err
	}
	if delta > 0 {
		statement.IncrementMatched()
	} else {
		statement.DecrementMatched()
	}
	return repos.Statements().Save(ctx, statement)
}

func ensureTarget(ctx context.Context, repos txn.Repositories, tenantID uuid.UUID, matchedType reconciliation.MatchedType, id uuid.UUID) error {
	var err error
	switch matchedType {
	case reconciliation.MatchedReceivable:
		_, err = repos.Receivables().FindByID(ctx, tenantID, id)
	case reconciliation.MatchedPayable:
		_, err = repos.Payables().FindByID(ctx, tenantID, id)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewValidationError("matched_id", "Financial record not found")
	}
	return err
}

// Unmatch returns a matched entry to pending
func (s *Service) Unmatch(ctx context.Context, tenantID, entryID uuid.UUID) (*reconciliation.Entry, error) {
	return s.mutate(ctx, tenantID, entryID, s.unmatch)
}

func (s *Service) unmatch(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry) error {
	if err := entry.Unmatch(); err != nil {
		return err
	}
	if err := repos.Entries().Save(ctx, entry); err != nil {
		return err
	}
	return s.bumpMatched(ctx, repos, entry, -1)
}

// Ignore marks an entry as irrelevant, dropping any match
func (s *Service) Ignore(ctx context.Context, tenantID, entryID uuid.UUID) (*reconciliation.Entry, error) {
	return s.mutate(ctx, tenantID, entryID, s.ignore)
}

func (s *Service) ignore(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry) error {
	wasMatched, err := entry.Ignore()
	if err != nil {
		return err
	}
	if err := repos.Entries().Save(ctx, entry); err != nil {
		return err
	}
	if wasMatched {
		return s.bumpMatched(ctx, repos, entry, -1)
	}
	return nil
}

// Restore brings an ignored entry back to pending
func (s *Service) Restore(ctx context.Context, tenantID, entryID uuid.UUID) (*reconciliation.Entry, error) {
	return s.mutate(ctx, tenantID, entryID, func(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry) error {
		if err := entry.Restore(); err != nil {
			return err
		}
		return repos.Entries().Save(ctx, entry)
	})
}

type entryMutation func(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry) error

func (s *Service) mutate(ctx context.Context, tenantID, entryID uuid.UUID, fn entryMutation) (*reconciliation.Entry, error) {
	var entry *reconciliation.Entry
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		entry, err = repos.Entries().FindByID(ctx, tenantID, entryID)
		if err != nil {
			return err
		}
		return fn(ctx, repos, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AutoMatch links every pending entry of a statement to the open document with
// the earliest due date inside the amount and day windows
func (s *Service) AutoMatch(ctx context.Context, tenantID, statementID uuid.UUID) (*AutoMatchResult, error) {
	result := &AutoMatchResult{}
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		statement, err := repos.Statements().FindByID(ctx, tenantID, statementID)
		if err != nil {
			return err
		}
		pending, err := repos.Entries().FindPending(ctx, tenantID, statementID)
		if err != nil {
			return err
		}

		window := time.Duration(reconciliation.AutoMatchDayWindow) * 24 * time.Hour
		tolerance := decimal.RequireFromString(reconciliation.AutoMatchAmountTolerance)
		used := make(map[uuid.UUID]bool)
		now := s.now()
		for i := range pending {
			entry := &pending[i]
			candidates, err := loadCandidates(ctx, repos, entry, finance.MatchCandidateFilter{
				Amount:    entry.Amount,
				Tolerance: tolerance,
				DueFrom:   entry.Date.Add(-window),
				DueTo:     entry.Date.Add(window),
			})
			if err != nil {
				return err
			}
			candidates = unused(candidates, used)
			best := reconciliation.PickAutoMatch(entry, candidates)
			if best == nil {
				continue
			}
			if err := entry.Match(best.Type, best.ID, nil, now); err != nil {
				return err
			}
			if err := repos.Entries().Save(ctx, entry); err != nil {
				return err
			}
			used[best.ID] = true
			result.Matched++
		}

		matched, err := repos.Entries().CountMatched(ctx, tenantID, statementID)
		if err != nil {
			return err
		}
		statement.SetMatched(int(matched))
		result.MatchedEntries = statement.MatchedEntries
		result.TotalEntries = statement.TotalEntries
		return repos.Statements().Save(ctx, statement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("auto-match finished",
		zap.String("statement_id", statementID.String()),
		zap.Int("matched", result.Matched))
	return result, nil
}

func unused(candidates []reconciliation.Candidate, used map[uuid.UUID]bool) []reconciliation.Candidate {
	out := candidates[:0]
	for _, c := range candidates {
		if !used[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// loadCandidates reads open receivables for credits and open payables for debits
func loadCandidates(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry, filter finance.MatchCandidateFilter) ([]reconciliation.Candidate, error) {
	if entry.CandidateType() == reconciliation.MatchedPayable {
		rows, err := repos.Payables().FindMatchCandidates(ctx, entry.TenantID, filter)
		if err != nil {
			return nil, err
		}
		out := make([]reconciliation.Candidate, 0, len(rows))
		for _, ap := range rows {
			out = append(out, reconciliation.Candidate{
				Type:        reconciliation.MatchedPayable,
				ID:          ap.ID,
				Description: ap.Description,
				Amount:      ap.Remaining(),
				DueDate:     ap.DueDate,
				Customer:    ap.SupplierName,
			})
		}
		return out, nil
	}

	rows, err := repos.Receivables().FindMatchCandidates(ctx, entry.TenantID, filter)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string)
	out := make([]reconciliation.Candidate, 0, len(rows))
	for _, ar := range rows {
		name, ok := names[ar.CustomerID]
		if !ok {
			if c, err := repos.Customers().FindByID(ctx, entry.TenantID, ar.CustomerID); err == nil {
				name = c.Name
			}
			names[ar.CustomerID] = name
		}
		out = append(out, reconciliation.Candidate{
			Type:        reconciliation.MatchedReceivable,
			ID:          ar.ID,
			Description: ar.Description,
			Amount:      ar.Remaining(),
			DueDate:     ar.DueDate,
			Customer:    name,
		})
	}
	return out, nil
}

// Suggestions scores open documents against an entry and returns the best five
func (s *Service) Suggestions(ctx context.Context, tenantID, entryID uuid.UUID) ([]reconciliation.Suggestion, error) {
	entry, err := s.repos.Entries().FindByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}
	return suggest(ctx, s.repos, entry, nil)
}

// suggest scores the open documents for entry, leaving out those in used
func suggest(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry, used map[uuid.UUID]bool) ([]reconciliation.Suggestion, error) {
	candidates, err := loadCandidates(ctx, repos, entry, finance.MatchCandidateFilter{
		Amount:    entry.Amount,
		Tolerance: entry.Amount.Mul(decimal.RequireFromString(suggestionSpread)),
		Limit:     suggestionPool,
	})
	if err != nil {
		return nil, err
	}
	return reconciliation.Suggest(entry, unused(candidates, used), reconciliation.SuggestionLimit), nil
}

// Bulk applies one action to many entries. Entries the action does not
// apply to are skipped.
func (s *Service) Bulk(ctx context.Context, tenantID, userID uuid.UUID, req BulkRequest) (*BulkResult, error) {
	if len(req.EntryIDs) == 0 || len(req.EntryIDs) > shared.MaxPageSize {
		return nil, shared.NewValidationError("entry_ids", "Between 1 and 200 entries are required")
	}
	action := BulkAction(req.Action)
	switch action {
	case BulkAutoMatch, BulkIgnore, BulkUnmatch:
	default:
		return nil, shared.NewValidationError("action", "Unknown bulk action")
	}

	result := &BulkResult{Total: len(req.EntryIDs)}
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		entries, err := repos.Entries().FindByIDs(ctx, tenantID, req.EntryIDs)
		if err != nil {
			return err
		}
		// documents matched earlier in this batch
		used := make(map[uuid.UUID]bool)
		for i := range entries {
			entry := &entries[i]
			done, err := s.applyBulk(ctx, repos, entry, action, &userID, used)
			if err != nil {
				return err
			}
			if done {
				result.Processed++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) applyBulk(ctx context.Context, repos txn.Repositories, entry *reconciliation.Entry, action BulkAction, by *uuid.UUID, used map[uuid.UUID]bool) (bool, error) {
	switch action {
	case BulkIgnore:
		if entry.Status == reconciliation.EntryIgnored {
			return false, nil
		}
		return true, s.ignore(ctx, repos, entry)
	case BulkUnmatch:
		if entry.Status != reconciliation.EntryMatched {
			return false, nil
		}
		return true, s.unmatch(ctx, repos, entry)
	}

	if entry.Status != reconciliation.EntryPending {
		return false, nil
	}
	suggestions, err := suggest(ctx, repos, entry, used)
	if err != nil {
		return false, err
	}
	if len(suggestions) == 0 || suggestions[0].Score < reconciliation.BulkAcceptScore {
		return false, nil
	}
	best := suggestions[0]
	if err := s.match(ctx, repos, entry, best.Type, best.ID, by); err != nil {
		return false, err
	}
	used[best.ID] = true
	return true, nil
}

// Summary aggregates reconciliation progress, optionally for one statement
func (s *Service) Summary(ctx context.Context, tenantID uuid.UUID, statementID *uuid.UUID) (reconciliation.Summary, error) {
	if statementID != nil {
		if _, err := s.repos.Statements().FindByID(ctx, tenantID, *statementID); err != nil {
			return reconciliation.Summary{}, err
		}
	}
	return s.repos.Entries().Summary(ctx, tenantID, statementID)
}
