package identity

import (
	"context"
	"errors"
	"time"

	"github.com/calibra/backend/internal/domain/identity"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantService provisions tenants and lists the active ones for scheduled jobs
type TenantService struct {
	tenants identity.TenantRepository
	users   identity.UserRepository
	logger  *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(tenants identity.TenantRepository, users identity.UserRepository, logger *zap.Logger) *TenantService {
	return &TenantService{tenants: tenants, users: users, logger: logger}
}

// Create provisions a tenant and its first admin user
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*TenantInfo, *UserInfo, error) {
	if _, err := s.tenants.FindBySlug(ctx, input.Slug); err == nil {
		return nil, nil, shared.NewDomainError("ALREADY_EXISTS", "Slug is already taken").WithDetail("field", "slug")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, nil, err
	}
	if _, err := s.users.FindByEmail(ctx, input.AdminEmail); err == nil {
		return nil, nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered").WithDetail("field", "admin_email")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, nil, err
	}

	tenant, err := identity.NewTenant(input.Name, input.Slug)
	if err != nil {
		return nil, nil, err
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return nil, nil, shared.NewValidationError("timezone", "Unknown timezone")
		}
		tenant.Timezone = input.Timezone
	}
	admin, err := identity.NewUser(tenant.ID, input.AdminName, input.AdminEmail, input.AdminPassword)
	if err != nil {
		return nil, nil, err
	}
	admin.SetRoles([]string{identity.RoleAdmin})

	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, nil, err
	}
	if err := s.users.Save(ctx, admin); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug))
	ti, ui := ToTenantInfo(tenant), ToUserInfo(admin)
	return &ti, &ui, nil
}

// Get returns one tenant
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*TenantInfo, error) {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := ToTenantInfo(t)
	return &info, nil
}

// ValidateTenant rejects unknown and inactive tenants
func (s *TenantService) ValidateTenant(ctx context.Context, id uuid.UUID) error {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !t.Active {
		return shared.NewDomainError("TENANT_INACTIVE", "Tenant is inactive")
	}
	return nil
}

// ActiveTenantIDs lists active tenants. It feeds the cron trigger.
func (s *TenantService) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.tenants.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	return ids, nil
}
