package importing

import (
	"context"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists imports and their id mappings
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Import, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, entityType *EntityType, filter shared.Filter) ([]Import, int64, error)
	Save(ctx context.Context, imp *Import) error
	SaveMappings(ctx context.Context, mappings []IDMapping) error
	FindMappings(ctx context.Context, tenantID, importID uuid.UUID) ([]IDMapping, error)
	DeleteMappings(ctx context.Context, tenantID, importID uuid.UUID) (int64, error)
}

// RecordRemover soft-deletes imported records of one entity type.
// It returns false when the record does not exist in the tenant.
type RecordRemover interface {
	SoftDelete(ctx context.Context, tenantID uuid.UUID, entityType EntityType, id uuid.UUID) (bool, error)
}
