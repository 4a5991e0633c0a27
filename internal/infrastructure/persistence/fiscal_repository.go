package persistence

import (
	"context"

	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFiscalNoteRepository implements fiscal.Repository using GORM
type GormFiscalNoteRepository struct {
	db *gorm.DB
}

// NewGormFiscalNoteRepository creates a new GormFiscalNoteRepository
func NewGormFiscalNoteRepository(db *gorm.DB) *GormFiscalNoteRepository {
	return &GormFiscalNoteRepository{db: db}
}

// FindByID finds a note by ID within a tenant
func (r *GormFiscalNoteRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*fiscal.Note, error) {
	var model models.FiscalNoteModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists notes
func (r *GormFiscalNoteRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fiscal.Note, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FiscalNoteModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "reference", "number", "access_key")

	var rows []models.FiscalNoteModel
	total, err := findPage(query, filter, FiscalNoteSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	return notesToDomain(rows), total, nil
}

// FindQueued returns notes waiting in contingency, oldest first
func (r *GormFiscalNoteRepository) FindQueued(ctx context.Context, tenantID uuid.UUID) ([]fiscal.Note, error) {
	var rows []models.FiscalNoteModel
	if err := r.queued(ctx).Scopes(tenantScope(tenantID)).
		Order("queued_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return notesToDomain(rows), nil
}

// CountQueued counts notes waiting in contingency
func (r *GormFiscalNoteRepository) CountQueued(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.queued(ctx).Scopes(tenantScope(tenantID)).Count(&count).Error
	return count, err
}

// TenantsWithQueued lists tenants holding contingency notes
func (r *GormFiscalNoteRepository) TenantsWithQueued(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.queued(ctx).Distinct("tenant_id").Pluck("tenant_id", &ids).Error
	return ids, err
}

// Save creates or updates a note
func (r *GormFiscalNoteRepository) Save(ctx context.Context, n *fiscal.Note) error {
	return r.db.WithContext(ctx).Save(models.FiscalNoteModelFromDomain(n)).Error
}

func (r *GormFiscalNoteRepository) queued(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.FiscalNoteModel{}).
		Where("contingency_mode = ? AND status = ?", true, fiscal.NoteStatusPending)
}

func notesToDomain(rows []models.FiscalNoteModel) []fiscal.Note {
	out := make([]fiscal.Note, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ fiscal.Repository = (*GormFiscalNoteRepository)(nil)
