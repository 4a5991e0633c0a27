package identity

import (
	"context"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository persists users
type UserRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]User, error)
	// FindByEmail looks a user up across tenants for login
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]User, int64, error)
	Save(ctx context.Context, u *User) error
}

// TenantRepository persists tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindActive(ctx context.Context) ([]Tenant, error)
	Save(ctx context.Context, t *Tenant) error
}
