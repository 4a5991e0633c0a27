package persistence

import (
	"context"
	"fmt"

	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sequence names
const (
	SequenceWorkOrder = "work_order"
	SequenceInvoice   = "invoice"
)

// nextSequence increments and returns the tenant's counter. The upsert holds the
// row lock until the surrounding transaction ends, so numbers are never reused.
func nextSequence(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, name string) (int64, error) {
	var value int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.SequenceModel{TenantID: tenantID, Name: name, Value: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{"value": gorm.Expr("tenant_sequences.value + 1")}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&models.SequenceModel{}).
			Where("tenant_id = ? AND name = ?", tenantID, name).
			Pluck("value", &value).Error
	})
	return value, err
}

func formatSequence(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}
