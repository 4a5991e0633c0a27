package contract

import (
	"context"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists recurring contracts
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*RecurringContract, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]RecurringContract, int64, error)
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]RecurringContract, error)
	// TenantsWithActive lists tenants that have at least one active contract
	TenantsWithActive(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, c *RecurringContract) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
