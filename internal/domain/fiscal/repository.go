package fiscal

import (
	"context"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists fiscal notes
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Note, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Note, int64, error)
	// FindQueued returns notes in contingency mode still pending, oldest first
	FindQueued(ctx context.Context, tenantID uuid.UUID) ([]Note, error)
	CountQueued(ctx context.Context, tenantID uuid.UUID) (int64, error)
	TenantsWithQueued(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, n *Note) error
}
