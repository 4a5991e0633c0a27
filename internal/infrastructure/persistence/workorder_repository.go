package persistence

import (
	"context"

	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWorkOrderRepository implements workorder.Repository using GORM
type GormWorkOrderRepository struct {
	db *gorm.DB
}

// NewGormWorkOrderRepository creates a new GormWorkOrderRepository
func NewGormWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

// FindByID finds a work order with its items
func (r *GormWorkOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*workorder.WorkOrder, error) {
	var model models.WorkOrderModel
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Scopes(preloadItems).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists work orders matching the filter
func (r *GormWorkOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter workorder.Filter) ([]workorder.WorkOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WorkOrderModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "number", "description")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}

	var rows []models.WorkOrderModel
	total, err := findPage(query, filter.Filter, WorkOrderSortFields, "created_at", &rows, preloadItems)
	if err != nil {
		return nil, 0, err
	}

	out := make([]workorder.WorkOrder, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates the order, replaces its items and appends new history rows
func (r *GormWorkOrderRepository) Save(ctx context.Context, wo *workorder.WorkOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.WorkOrderModelFromDomain(wo)
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("work_order_id = ?", wo.ID).Delete(&models.WorkOrderItemModel{}).Error; err != nil {
			return err
		}
		if items := models.WorkOrderItemModelsFromDomain(wo); len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if history := models.WorkOrderHistoryModelsFromDomain(wo); len(history) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&history).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete soft deletes the order
func (r *GormWorkOrderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.WorkOrderModel{})
}

// History returns the status audit trail, oldest first
func (r *GormWorkOrderRepository) History(ctx context.Context, tenantID, id uuid.UUID) ([]workorder.StatusChange, error) {
	var rows []models.WorkOrderStatusHistoryModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ?", id).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]workorder.StatusChange, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// NextNumber returns the next OS-%06d number for the tenant
func (r *GormWorkOrderRepository) NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	n, err := nextSequence(ctx, r.db, tenantID, SequenceWorkOrder)
	if err != nil {
		return "", err
	}
	return formatSequence("OS", n), nil
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// Ensure GormWorkOrderRepository implements workorder.Repository
var _ workorder.Repository = (*GormWorkOrderRepository)(nil)
