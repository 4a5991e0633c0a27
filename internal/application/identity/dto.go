package identity

import (
	"time"

	"github.com/calibra/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// TokenResult is returned by login and refresh
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	User UserInfo `json:"user"`
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	AccessTokenID string
	AccessTTL     time.Duration
	RefreshToken  string
	UserID        uuid.UUID
	TenantID      uuid.UUID
}

// CreateUserInput contains the fields for a new user
type CreateUserInput struct {
	Name        string
	Email       string
	Password    string
	Roles       []string
	Permissions []string
}

// CreateTenantInput creates a tenant and its first admin
type CreateTenantInput struct {
	Name          string
	Slug          string
	Timezone      string
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// TenantInfo is the public view of a tenant
type TenantInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Timezone string    `json:"timezone"`
	Active   bool      `json:"active"`
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) UserInfo {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return UserInfo{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Name:        u.Name,
		Email:       u.Email,
		Roles:       u.Roles,
		Permissions: perms,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
	}
}

// ToTenantInfo converts a domain tenant
func ToTenantInfo(t *identity.Tenant) TenantInfo {
	return TenantInfo{ID: t.ID, Name: t.Name, Slug: t.Slug, Timezone: t.Timezone, Active: t.Active}
}
