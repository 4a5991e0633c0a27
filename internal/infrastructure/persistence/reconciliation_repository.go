package persistence

import (
	"context"
	"math"
	"time"

	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStatementRepository implements reconciliation.StatementRepository using GORM
type GormStatementRepository struct {
	db *gorm.DB
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// FindByID finds a statement by ID within a tenant
func (r *GormStatementRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reconciliation.BankStatement, error) {
	var model models.BankStatementModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists statements, newest import first by default
func (r *GormStatementRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]reconciliation.BankStatement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankStatementModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "filename")

	var rows []models.BankStatementModel
	total, err := findPage(query, filter, StatementSortFields, "imported_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]reconciliation.BankStatement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a statement header
func (r *GormStatementRepository) Save(ctx context.Context, s *reconciliation.BankStatement) error {
	return r.db.WithContext(ctx).Save(models.BankStatementModelFromDomain(s)).Error
}

// Delete removes the statement together with its entries
func (r *GormStatementRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(tenantScope(tenantID)).
			Where("bank_statement_id = ?", id).
			Delete(&models.BankStatementEntryModel{}).Error; err != nil {
			return err
		}
		return deleteScoped(ctx, tx, tenantID, id, &models.BankStatementModel{})
	})
}

// GormEntryRepository implements reconciliation.EntryRepository using GORM
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// FindByID finds an entry by ID within a tenant
func (r *GormEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reconciliation.Entry, error) {
	var model models.BankStatementEntryModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given entries; unknown ids are skipped
func (r *GormEntryRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]reconciliation.Entry, error) {
	if len(ids) == 0 {
		return []reconciliation.Entry{}, nil
	}
	return r.find(r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id IN ?", ids).Order("date ASC"))
}

// FindAll lists entries matching the filter
func (r *GormEntryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter reconciliation.EntryFilter) ([]reconciliation.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankStatementEntryModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "description")
	if filter.StatementID != nil {
		query = query.Where("bank_statement_id = ?", *filter.StatementID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.PossibleDuplicate != nil {
		query = query.Where("possible_duplicate = ?", *filter.PossibleDuplicate)
	}

	var rows []models.BankStatementEntryModel
	total, err := findPage(query, filter.Filter, EntrySortFields, "date", &rows)
	if err != nil {
		return nil, 0, err
	}
	return entriesToDomain(rows), total, nil
}

// FindPending returns the pending entries of a statement in date order
func (r *GormEntryRepository) FindPending(ctx context.Context, tenantID, statementID uuid.UUID) ([]reconciliation.Entry, error) {
	return r.find(r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("bank_statement_id = ? AND status = ?", statementID, reconciliation.EntryPending).
		Order("date ASC, created_at ASC"))
}

// CountMatched counts matched entries of a statement
func (r *GormEntryRepository) CountMatched(ctx context.Context, tenantID, statementID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BankStatementEntryModel{}).
		Scopes(tenantScope(tenantID)).
		Where("bank_statement_id = ? AND status = ?", statementID, reconciliation.EntryMatched).
		Count(&count).Error
	return count, err
}

// ExistsElsewhere reports whether another statement holds the same line
func (r *GormEntryRepository) ExistsElsewhere(ctx context.Context, tenantID, statementID uuid.UUID, date time.Time, description string, amount, tolerance decimal.Decimal) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BankStatementEntryModel{}).
		Scopes(tenantScope(tenantID)).
		Where("bank_statement_id <> ?", statementID).
		Where("date = ? AND description = ?", date, description).
		Where("amount BETWEEN ? AND ?", amount.Sub(tolerance), amount.Add(tolerance)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Summary aggregates entry counts and totals, optionally for one statement
func (r *GormEntryRepository) Summary(ctx context.Context, tenantID uuid.UUID, statementID *uuid.UUID) (reconciliation.Summary, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.BankStatementEntryModel{}).Scopes(tenantScope(tenantID))
		if statementID != nil {
			q = q.Where("bank_statement_id = ?", *statementID)
		}
		return q
	}

	type statusCount struct {
		Status reconciliation.EntryStatus
		Count  int64
	}
	var counts []statusCount
	if err := scoped().Select("status, COUNT(*) AS count").Group("status").Scan(&counts).Error; err != nil {
		return reconciliation.Summary{}, err
	}

	var s reconciliation.Summary
	for _, c := range counts {
		s.TotalEntries += c.Count
		switch c.Status {
		case reconciliation.EntryPending:
			s.PendingCount = c.Count
		case reconciliation.EntryMatched:
			s.MatchedCount = c.Count
		case reconciliation.EntryIgnored:
			s.IgnoredCount = c.Count
		}
	}
	if s.TotalEntries > 0 {
		s.MatchedPercent = math.Round(float64(s.MatchedCount)/float64(s.TotalEntries)*1000) / 10
	}

	var err error
	if s.TotalCredits, err = sumColumn(scoped().Where("type = ?", reconciliation.EntryCredit), "amount"); err != nil {
		return s, err
	}
	if s.TotalDebits, err = sumColumn(scoped().Where("type = ?", reconciliation.EntryDebit), "amount"); err != nil {
		return s, err
	}
	s.TotalCredits = s.TotalCredits.Round(2)
	s.TotalDebits = s.TotalDebits.Round(2)
	if err := scoped().Where("possible_duplicate = ?", true).Count(&s.DuplicateCount).Error; err != nil {
		return s, err
	}
	return s, nil
}

// Save creates or updates an entry
func (r *GormEntryRepository) Save(ctx context.Context, e *reconciliation.Entry) error {
	return r.db.WithContext(ctx).Save(models.BankStatementEntryModelFromDomain(e)).Error
}

// SaveAll inserts or updates entries in batches
func (r *GormEntryRepository) SaveAll(ctx context.Context, entries []*reconciliation.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.BankStatementEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.BankStatementEntryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := tx.Save(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormEntryRepository) find(query *gorm.DB) ([]reconciliation.Entry, error) {
	var rows []models.BankStatementEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(rows), nil
}

func entriesToDomain(rows []models.BankStatementEntryModel) []reconciliation.Entry {
	out := make([]reconciliation.Entry, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var (
	_ reconciliation.StatementRepository = (*GormStatementRepository)(nil)
	_ reconciliation.EntryRepository     = (*GormEntryRepository)(nil)
)
