package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// translateError maps driver errors onto domain sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// tenantScope restricts a query to one tenant's rows
func tenantScope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// paginate applies a whitelisted order and the filter's page window
func paginate(query *gorm.DB, filter shared.Filter, allowed sortFields, defaultField string) *gorm.DB {
	return query.Order(allowed.clause(filter.OrderBy, filter.OrderDir, defaultField)).Offset(filter.Offset()).Limit(filter.Limit())
}

// searchLike matches the term case-insensitively against any of the columns.
// LOWER/LIKE keeps the query portable between PostgreSQL and SQLite.
func searchLike(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(term) + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		conds[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// sumRow scans a single aggregated decimal column
type sumRow struct {
	Total decimal.Decimal `gorm:"column:total"`
}

func sumColumn(query *gorm.DB, expr string) (decimal.Decimal, error) {
	var row sumRow
	if err := query.Select("COALESCE(SUM(" + expr + "), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// findPage counts the filtered rows and loads one page of them. Scopes such as
// preloads are applied only to the page query.
func findPage[T any](query *gorm.DB, filter shared.Filter, allowed sortFields, defaultField string, dest *[]T, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	base := query.Session(&gorm.Session{})
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := paginate(base, filter, allowed, defaultField).Scopes(scopes...).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// deleteScoped deletes one tenant row, soft when the model carries DeletedAt
func deleteScoped(ctx context.Context, db *gorm.DB, tenantID, id uuid.UUID, model any) error {
	result := db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
