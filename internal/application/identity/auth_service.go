package identity

import (
	"context"
	"errors"
	"time"

	"github.com/calibra/backend/internal/domain/identity"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int // failed attempts before lock
	LockDuration     time.Duration // how long a locked account stays locked
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

var errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// AuthService handles login, token refresh and logout
type AuthService struct {
	users      identity.UserRepository
	tenants    identity.TenantRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	tenants identity.TenantRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		tenants:    tenants,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates a user by email and password and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email", zap.String("email", input.Email))
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if !user.CanLogin(now) {
		if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
		}
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	tenant, err := s.tenants.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.Active {
		return nil, shared.NewDomainError("TENANT_INACTIVE", "Company account is suspended")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.users.Save(ctx, user); err != nil {
			s.logger.Error("Failed to record login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("max_attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, errInvalidCredentials
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		TenantID:    user.TenantID,
		UserID:      user.ID,
		Username:    user.Email,
		Roles:       user.Roles,
		Permissions: user.Permissions,
	})
	if err != nil {
		return nil, err
	}

	user.RecordLoginSuccess(now)
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("ip", input.IP))

	return &LoginResult{TokenResult: toTokenResult(pair), User: ToUserInfo(user)}, nil
}

// Refresh rotates a refresh token. Roles and permissions are reloaded from the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	tenantID, _ := claims.TenantUUID()
	userID, _ := claims.UserUUID()
	user, err := s.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, mapTokenError(auth.ErrInvalidToken)
		}
		return nil, err
	}
	if !user.CanLogin(s.now()) {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	pair, old, err := s.jwtService.RefreshTokenPair(refreshToken, user.Roles, user.Permissions)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.blacklist.Revoke(ctx, old.ID, old.RemainingTTL(s.now())); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}
	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the current access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessTokenID != "" {
		if err := s.blacklist.Revoke(ctx, input.AccessTokenID, input.AccessTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
				return err
			}
		}
	}
	s.logger.Info("User logged out",
		zap.String("user_id", input.UserID.String()),
		zap.String("tenant_id", input.TenantID.String()))
	return nil
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, claims *auth.Claims) (*UserInfo, error) {
	tenantID, err := claims.TenantUUID()
	if err != nil {
		return nil, mapTokenError(auth.ErrInvalidClaims)
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, mapTokenError(auth.ErrInvalidClaims)
	}
	user, err := s.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return mapTokenError(auth.ErrTokenRevoked)
	}
	return nil
}

func toTokenResult(p *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
		TokenType:             p.TokenType,
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrTokenRevoked):
		return shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	}
}
