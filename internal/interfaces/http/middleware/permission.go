package middleware

import (
	"net/http"

	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authorizer decides role based grants. authz.Service implements it.
type Authorizer interface {
	Allowed(tenantID string, roles []string, permission string) (bool, error)
}

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// Authorizer resolves role grants. Nil means only token permissions count.
	Authorizer Authorizer
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when permission is denied (optional)
	OnDenied func(c *gin.Context, requiredPerms []string)
}

// Permissions builds route guards sharing one config
type Permissions struct {
	cfg PermissionConfig
}

// NewPermissions creates the guard factory
func NewPermissions(cfg PermissionConfig) *Permissions {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Permissions{cfg: cfg}
}

// Require lets the request through when the caller holds permission
func (p *Permissions) Require(permission string) gin.HandlerFunc {
	return p.RequireAny(permission)
}

// RequireAny lets the request through when the caller holds at least one of permissions
func (p *Permissions) RequireAny(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetJWTClaims(c) == nil {
			p.deny(c, permissions, "no authentication claims")
			return
		}
		for _, perm := range permissions {
			if p.Check(c, perm) {
				c.Next()
				return
			}
		}
		p.deny(c, permissions, "missing permission")
	}
}

// Check reports whether the caller holds permission. Token permissions are
// consulted first, then the role grants of the caller's tenant.
func (p *Permissions) Check(c *gin.Context, permission string) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	if claims.HasPermission(permission) {
		return true
	}
	if p.cfg.Authorizer == nil || len(claims.Roles) == 0 {
		return false
	}
	allowed, err := p.cfg.Authorizer.Allowed(claims.TenantID, claims.Roles, permission)
	if err != nil {
		p.cfg.Logger.Error("authorization check failed",
			zap.String("permission", permission),
			zap.String("user_id", claims.UserID),
			zap.Error(err))
		return false
	}
	return allowed
}

func (p *Permissions) deny(c *gin.Context, requiredPerms []string, reason string) {
	if p.cfg.OnDenied != nil {
		p.cfg.OnDenied(c, requiredPerms)
		return
	}

	userID := ""
	var roles []string
	if claims := GetJWTClaims(c); claims != nil {
		userID = claims.UserID
		roles = claims.Roles
	}
	p.cfg.Logger.Warn("Permission denied",
		zap.String("reason", reason),
		zap.String("user_id", userID),
		zap.Strings("roles", roles),
		zap.Strings("required_permissions", requiredPerms),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden,
		"Access denied: insufficient permissions",
		getRequestIDFromContext(c),
	))
}
