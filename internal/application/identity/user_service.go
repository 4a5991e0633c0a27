package identity

import (
	"context"
	"errors"
	"time"

	"github.com/calibra/backend/internal/domain/identity"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var knownRoles = map[string]bool{
	identity.RoleAdmin:      true,
	identity.RoleManager:    true,
	identity.RoleFinancial:  true,
	identity.RoleTechnician: true,
	identity.RoleSeller:     true,
	identity.RoleDriver:     true,
}

// UserService manages the users of a tenant
type UserService struct {
	users     identity.UserRepository
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new user service. tokenTTL bounds how long a
// deactivation has to outlive issued tokens.
func NewUserService(users identity.UserRepository, blacklist auth.TokenBlacklist, tokenTTL time.Duration, logger *zap.Logger) *UserService {
	return &UserService{users: users, blacklist: blacklist, tokenTTL: tokenTTL, logger: logger}
}

// Create adds a user to the tenant. Emails are unique across tenants.
func (s *UserService) Create(ctx context.Context, tenantID uuid.UUID, input CreateUserInput) (*UserInfo, error) {
	if err := validateRoles(input.Roles); err != nil {
		return nil, err
	}
	if existing, err := s.users.FindByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Email is already registered").WithDetail("field", "email")
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user, err := identity.NewUser(tenantID, input.Name, input.Email, input.Password)
	if err != nil {
		return nil, err
	}
	user.SetRoles(input.Roles)
	user.Permissions = input.Permissions
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.Strings("roles", user.Roles))
	info := ToUserInfo(user)
	return &info, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, tenantID, id uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[UserInfo], error) {
	rows, total, err := s.users.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[UserInfo]{}, err
	}
	items := make([]UserInfo, len(rows))
	for i := range rows {
		items[i] = ToUserInfo(&rows[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// SetRoles replaces the user's roles and revokes their tokens so the change applies at once
func (s *UserService) SetRoles(ctx context.Context, tenantID, id uuid.UUID, roles []string) (*UserInfo, error) {
	if err := validateRoles(roles); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	user.SetRoles(roles)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.revokeSessions(ctx, user.ID)
	info := ToUserInfo(user)
	return &info, nil
}

// Deactivate blocks a user and revokes their tokens
func (s *UserService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) error {
	user, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	user.Deactivate()
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	s.revokeSessions(ctx, user.ID)
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.tokenTTL); err != nil {
		s.logger.Error("Failed to revoke user sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func validateRoles(roles []string) error {
	for _, r := range roles {
		if !knownRoles[r] {
			return shared.NewValidationError("roles", "Unknown role: "+r)
		}
	}
	return nil
}
