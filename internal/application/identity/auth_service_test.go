package identity

import (
	"context"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/identity"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/auth"
	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Save(ctx context.Context, u *identity.User) error {
	return m.Called(ctx, u).Error(0)
}

// MockTenantRepository is a mock implementation of identity.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*identity.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindActive(ctx context.Context) ([]identity.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, t *identity.Tenant) error {
	return m.Called(ctx, t).Error(0)
}

type authFixture struct {
	users     *MockUserRepository
	tenants   *MockTenantRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	svc       *AuthService
	tenant    *identity.Tenant
	user      *identity.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tenant, err := identity.NewTenant("Metrologia Sul", "metrologia-sul")
	require.NoError(t, err)
	user, err := identity.NewUser(tenant.ID, "Ana Tecnica", "ana@example.com", "s3cretpass")
	require.NoError(t, err)
	user.SetRoles([]string{identity.RoleTechnician})

	f := &authFixture{
		users:   new(MockUserRepository),
		tenants: new(MockTenantRepository),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-with-at-least-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "calibra-test",
			MaxRefreshCount:        3,
		}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		tenant:    tenant,
		user:      user,
	}
	f.svc = NewAuthService(f.users, f.tenants, f.jwt, f.blacklist, DefaultAuthServiceConfig(), zap.NewNop())
	return f
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues tokens carrying tenant and roles", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByEmail", ctx, "ana@example.com").Return(f.user, nil)
		f.tenants.On("FindByID", ctx, f.tenant.ID).Return(f.tenant, nil)
		f.users.On("Save", ctx, f.user).Return(nil)

		result, err := f.svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "s3cretpass"})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.Equal(t, f.user.ID, result.User.ID)
		assert.NotNil(t, f.user.LastLoginAt)

		claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, f.tenant.ID.String(), claims.TenantID)
		assert.True(t, claims.HasRole(identity.RoleTechnician))
		f.users.AssertExpectations(t)
	})

	t.Run("unknown email is reported as invalid credentials", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByEmail", ctx, "ghost@example.com").Return(nil, shared.ErrNotFound)

		_, err := f.svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever1"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CREDENTIALS", de.Code)
	})

	t.Run("wrong password counts a failure and locks at the limit", func(t *testing.T) {
		f := newAuthFixture(t)
		f.svc.config.MaxLoginAttempts = 2
		f.users.On("FindByEmail", ctx, "ana@example.com").Return(f.user, nil)
		f.tenants.On("FindByID", ctx, f.tenant.ID).Return(f.tenant, nil)
		f.users.On("Save", ctx, f.user).Return(nil)

		_, err := f.svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrongpass1"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_CREDENTIALS", de.Code)

		_, err = f.svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrongpass1"})
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ACCOUNT_LOCKED", de.Code)
		require.NotNil(t, f.user.LockedUntil)

		_, err = f.svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "s3cretpass"})
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ACCOUNT_LOCKED", de.Code, "correct password does not bypass the lock")
	})

	t.Run("suspended tenant cannot log in", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tenant.Suspend()
		f.users.On("FindByEmail", ctx, "ana@example.com").Return(f.user, nil)
		f.tenants.On("FindByID", ctx, f.tenant.ID).Return(f.tenant, nil)

		_, err := f.svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "s3cretpass"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "TENANT_INACTIVE", de.Code)
	})
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	pair, err := f.jwt.GenerateTokenPair(auth.Subject{TenantID: f.tenant.ID, UserID: f.user.ID, Username: f.user.Email})
	require.NoError(t, err)

	f.user.SetRoles([]string{identity.RoleSeller})
	f.users.On("FindByID", ctx, f.tenant.ID, f.user.ID).Return(f.user, nil)

	refreshed, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := f.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(identity.RoleSeller), "roles are reloaded on refresh")

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "TOKEN_REVOKED", de.Code, "a rotated refresh token cannot be reused")
}

func TestAuthService_RefreshRejectsInactiveUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{TenantID: f.tenant.ID, UserID: f.user.ID})
	require.NoError(t, err)

	f.user.Deactivate()
	f.users.On("FindByID", ctx, f.tenant.ID, f.user.ID).Return(f.user, nil)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ACCOUNT_INACTIVE", de.Code)
}

func TestAuthService_LogoutRevokesTokens(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{TenantID: f.tenant.ID, UserID: f.user.ID})
	require.NoError(t, err)
	access, err := f.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, LogoutInput{
		AccessTokenID: access.ID,
		AccessTTL:     time.Minute,
		RefreshToken:  pair.RefreshToken,
		UserID:        f.user.ID,
		TenantID:      f.tenant.ID,
	}))

	revoked, err := f.blacklist.IsRevoked(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.Error(t, err)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("create rejects unknown roles", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, auth.NewInMemoryTokenBlacklist(), time.Hour, zap.NewNop())

		_, err := svc.Create(ctx, tenantID, CreateUserInput{Name: "X", Email: "x@example.com", Password: "abc12345", Roles: []string{"owner"}})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeValidation, de.Code)
		users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("create rejects a taken email", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil, time.Hour, zap.NewNop())
		users.On("FindByEmail", ctx, "x@example.com").Return(&identity.User{}, nil)

		_, err := svc.Create(ctx, tenantID, CreateUserInput{Name: "X", Email: "x@example.com", Password: "abc12345"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ALREADY_EXISTS", de.Code)
	})

	t.Run("create saves the user with roles", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewUserService(users, nil, time.Hour, zap.NewNop())
		users.On("FindByEmail", ctx, "seller@example.com").Return(nil, shared.ErrNotFound)
		users.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

		info, err := svc.Create(ctx, tenantID, CreateUserInput{
			Name: "Bruno", Email: "Seller@Example.com", Password: "abc12345",
			Roles: []string{identity.RoleSeller},
		})
		require.NoError(t, err)
		assert.Equal(t, "seller@example.com", info.Email)
		assert.Equal(t, []string{identity.RoleSeller}, info.Roles)
		assert.Equal(t, tenantID, info.TenantID)
	})

	t.Run("deactivate revokes sessions", func(t *testing.T) {
		users := new(MockUserRepository)
		blacklist := auth.NewInMemoryTokenBlacklist()
		svc := NewUserService(users, blacklist, time.Hour, zap.NewNop())
		u, err := identity.NewUser(tenantID, "Caio", "caio@example.com", "abc12345")
		require.NoError(t, err)
		users.On("FindByID", ctx, tenantID, u.ID).Return(u, nil)
		users.On("Save", ctx, u).Return(nil)

		require.NoError(t, svc.Deactivate(ctx, tenantID, u.ID))
		assert.False(t, u.Active)

		revoked, err := blacklist.IsUserRevoked(ctx, u.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestTenantService(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions tenant with admin", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		users := new(MockUserRepository)
		svc := NewTenantService(tenants, users, zap.NewNop())
		tenants.On("FindBySlug", ctx, "lab-norte").Return(nil, shared.ErrNotFound)
		users.On("FindByEmail", ctx, "admin@labnorte.com").Return(nil, shared.ErrNotFound)
		tenants.On("Save", ctx, mock.AnythingOfType("*identity.Tenant")).Return(nil)
		users.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

		ti, admin, err := svc.Create(ctx, CreateTenantInput{
			Name: "Lab Norte", Slug: "lab-norte", Timezone: "America/Manaus",
			AdminName: "Admin", AdminEmail: "admin@labnorte.com", AdminPassword: "abc12345",
		})
		require.NoError(t, err)
		assert.Equal(t, "America/Manaus", ti.Timezone)
		assert.Equal(t, ti.ID, admin.TenantID)
		assert.Equal(t, []string{identity.RoleAdmin}, admin.Roles)
	})

	t.Run("rejects duplicate slug", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		svc := NewTenantService(tenants, new(MockUserRepository), zap.NewNop())
		tenants.On("FindBySlug", ctx, "lab-norte").Return(&identity.Tenant{}, nil)

		_, _, err := svc.Create(ctx, CreateTenantInput{Name: "Lab", Slug: "lab-norte"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ALREADY_EXISTS", de.Code)
	})

	t.Run("lists active tenant ids", func(t *testing.T) {
		tenants := new(MockTenantRepository)
		svc := NewTenantService(tenants, new(MockUserRepository), zap.NewNop())
		a, _ := identity.NewTenant("A", "tenant-a")
		b, _ := identity.NewTenant("B", "tenant-b")
		tenants.On("FindActive", ctx).Return([]identity.Tenant{*a, *b}, nil)

		ids, err := svc.ActiveTenantIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids)
	})
}
