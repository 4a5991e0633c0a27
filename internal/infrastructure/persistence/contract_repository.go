package persistence

import (
	"context"

	"github.com/calibra/backend/internal/domain/contract"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractRepository implements contract.Repository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by ID within a tenant
func (r *GormContractRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*contract.RecurringContract, error) {
	var model models.RecurringContractModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists contracts
func (r *GormContractRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contract.RecurringContract, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RecurringContractModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "name")

	var rows []models.RecurringContractModel
	total, err := findPage(query, filter, ContractSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	return contractsToDomain(rows), total, nil
}

// FindActive returns the active contracts of a tenant
func (r *GormContractRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]contract.RecurringContract, error) {
	var rows []models.RecurringContractModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("active = ?", true).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return contractsToDomain(rows), nil
}

// TenantsWithActive lists tenants that hold at least one active contract
func (r *GormContractRepository) TenantsWithActive(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.RecurringContractModel{}).
		Where("active = ?", true).
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, c *contract.RecurringContract) error {
	return r.db.WithContext(ctx).Save(models.RecurringContractModelFromDomain(c)).Error
}

// Delete soft deletes a contract
func (r *GormContractRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.RecurringContractModel{})
}

func contractsToDomain(rows []models.RecurringContractModel) []contract.RecurringContract {
	out := make([]contract.RecurringContract, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ contract.Repository = (*GormContractRepository)(nil)
