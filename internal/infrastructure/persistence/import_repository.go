package persistence

import (
	"context"
	"fmt"

	"github.com/calibra/backend/internal/domain/importing"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportRepository implements importing.Repository using GORM
type GormImportRepository struct {
	db *gorm.DB
}

// NewGormImportRepository creates a new GormImportRepository
func NewGormImportRepository(db *gorm.DB) *GormImportRepository {
	return &GormImportRepository{db: db}
}

// FindByID finds an import by ID
func (r *GormImportRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*importing.Import, error) {
	var model models.ImportModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns the imports of a tenant, most recent first by default
func (r *GormImportRepository) FindAll(ctx context.Context, tenantID uuid.UUID, entityType *importing.EntityType, filter shared.Filter) ([]importing.Import, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ImportModel{}).Where("tenant_id = ?", tenantID)
	if entityType != nil {
		query = query.Where("entity_type = ?", *entityType)
	}
	query = searchLike(query, filter.Search, "file_name")

	var rows []models.ImportModel
	total, err := findPage(query, filter, ImportSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]importing.Import, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates an import
func (r *GormImportRepository) Save(ctx context.Context, imp *importing.Import) error {
	return r.db.WithContext(ctx).Save(models.ImportModelFromDomain(imp)).Error
}

// SaveMappings inserts id mappings in batches
func (r *GormImportRepository) SaveMappings(ctx context.Context, mappings []importing.IDMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	rows := make([]models.ImportMappingModel, len(mappings))
	for i, m := range mappings {
		rows[i] = models.ImportMappingModelFromDomain(m)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// FindMappings returns the id mappings of an import
func (r *GormImportRepository) FindMappings(ctx context.Context, tenantID, importID uuid.UUID) ([]importing.IDMapping, error) {
	var rows []models.ImportMappingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND import_id = ?", tenantID, importID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]importing.IDMapping, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// DeleteMappings removes every mapping of an import and returns how many were deleted
func (r *GormImportRepository) DeleteMappings(ctx context.Context, tenantID, importID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND import_id = ?", tenantID, importID).
		Delete(&models.ImportMappingModel{})
	return result.RowsAffected, result.Error
}

// GormRecordRemover soft deletes records created by imports
type GormRecordRemover struct {
	db *gorm.DB
}

// NewGormRecordRemover creates a new GormRecordRemover
func NewGormRecordRemover(db *gorm.DB) *GormRecordRemover {
	return &GormRecordRemover{db: db}
}

// SoftDelete removes one imported record. It reports false when the record no
// longer exists for the tenant.
func (r *GormRecordRemover) SoftDelete(ctx context.Context, tenantID uuid.UUID, entityType importing.EntityType, id uuid.UUID) (bool, error) {
	var model any
	switch entityType {
	case importing.EntityCustomers:
		model = &models.CustomerModel{}
	case importing.EntityEquipments:
		model = &models.EquipmentModel{}
	case importing.EntityWorkOrders:
		model = &models.WorkOrderModel{}
	default:
		return false, fmt.Errorf("unsupported import entity type %q", entityType)
	}
	result := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Delete(model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var (
	_ importing.Repository    = (*GormImportRepository)(nil)
	_ importing.RecordRemover = (*GormRecordRemover)(nil)
)
