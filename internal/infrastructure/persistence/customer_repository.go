package persistence

import (
	"context"

	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists customers
func (r *GormCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]customer.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "name", "document", "email")

	var rows []models.CustomerModel
	total, err := findPage(query, filter, CustomerSortFields, "name", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]customer.Customer, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// FindByDocument finds a customer by its normalized CPF/CNPJ
func (r *GormCustomerRepository) FindByDocument(ctx context.Context, tenantID uuid.UUID, document string) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("document = ?", customer.NormalizeDocument(document)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return r.db.WithContext(ctx).Save(models.CustomerModelFromDomain(c)).Error
}

// Delete soft deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.CustomerModel{})
}

// GormEquipmentRepository implements customer.EquipmentRepository using GORM
type GormEquipmentRepository struct {
	db *gorm.DB
}

// NewGormEquipmentRepository creates a new GormEquipmentRepository
func NewGormEquipmentRepository(db *gorm.DB) *GormEquipmentRepository {
	return &GormEquipmentRepository{db: db}
}

// FindByID finds equipment by ID within a tenant
func (r *GormEquipmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*customer.Equipment, error) {
	var model models.EquipmentModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists equipment, optionally of one customer
func (r *GormEquipmentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, customerID *uuid.UUID, filter shared.Filter) ([]customer.Equipment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EquipmentModel{}).Scopes(tenantScope(tenantID))
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	query = searchLike(query, filter.Search, "serial_number", "model", "manufacturer")

	var rows []models.EquipmentModel
	total, err := findPage(query, filter, EquipmentSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]customer.Equipment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// FindBySerial finds equipment by serial number
func (r *GormEquipmentRepository) FindBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*customer.Equipment, error) {
	var model models.EquipmentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("serial_number = ?", serial).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates equipment
func (r *GormEquipmentRepository) Save(ctx context.Context, e *customer.Equipment) error {
	return r.db.WithContext(ctx).Save(models.EquipmentModelFromDomain(e)).Error
}

// Delete soft deletes equipment
func (r *GormEquipmentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.EquipmentModel{})
}

var (
	_ customer.Repository          = (*GormCustomerRepository)(nil)
	_ customer.EquipmentRepository = (*GormEquipmentRepository)(nil)
)
