package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Well-known role names. Their permissions live in the authorization policy.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleFinancial  = "financial"
	RoleTechnician = "technician"
	RoleSeller     = "seller"
	RoleDriver     = "driver"
)

// User is a person who signs in to a tenant
type User struct {
	shared.TenantAggregateRoot
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Roles          []string   `json:"roles"`
	Permissions    []string   `json:"permissions,omitempty"`
	Active         bool       `json:"active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
}

// NewUser creates an active user with a hashed password
func NewUser(tenantID uuid.UUID, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "Name is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, shared.NewValidationError("email", "Invalid email format")
	}
	u := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Email:               email,
		Roles:               []string{},
		Active:              true,
	}
	if err := u.setPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// VerifyPassword compares a plaintext password with the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the password
func (u *User) SetPassword(password string) error {
	if err := u.setPassword(password); err != nil {
		return err
	}
	u.Touch()
	return nil
}

func (u *User) setPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	return nil
}

// SetRoles replaces the role names, dropping blanks and duplicates
func (u *User) SetRoles(roles []string) {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	u.Roles = out
	u.Touch()
}

// HasRole checks a role name
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Deactivate blocks future logins
func (u *User) Deactivate() {
	u.Active = false
	u.Touch()
}

// CanLogin reports whether the user may authenticate at now
func (u *User) CanLogin(now time.Time) bool {
	if !u.Active {
		return false
	}
	return u.LockedUntil == nil || now.After(*u.LockedUntil)
}

// RecordLoginSuccess stamps the login and clears failures
func (u *User) RecordLoginSuccess(now time.Time) {
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
}

// RecordLoginFailure counts a failed attempt and locks the account once
// maxAttempts is reached. It returns true when the account got locked.
func (u *User) RecordLoginFailure(now time.Time, maxAttempts int, lockFor time.Duration) bool {
	u.FailedAttempts++
	u.Touch()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := now.Add(lockFor)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("password", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("password", "Password cannot exceed 72 characters")
	}
	hasLetter := strings.IndexFunc(password, func(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }) >= 0
	hasNumber := strings.IndexFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
	if !hasLetter || !hasNumber {
		return shared.NewValidationError("password", "Password must contain at least one letter and one number")
	}
	return nil
}
