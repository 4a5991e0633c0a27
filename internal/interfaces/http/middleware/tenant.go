package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	UserIDKey       = "user_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantValidator checks that a tenant exists and is active
type TenantValidator interface {
	ValidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// HeaderEnabled lets unauthenticated requests name a tenant in X-Tenant-ID.
	// A tenant in the token always wins.
	HeaderEnabled bool
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Validator is an optional validator to check if tenant exists and is active
	Validator TenantValidator
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/api/v1/health", "/api/v1/auth/login", "/api/v1/auth/refresh", "/swagger"},
	}
}

// TenantMiddleware resolves the request tenant from the JWT claims, then the
// X-Tenant-ID header when enabled, and puts it on both contexts.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		raw := GetJWTTenantID(c)
		if raw == "" && cfg.HeaderEnabled {
			raw = c.GetHeader(TenantHeaderKey)
		}
		if raw == "" {
			respondUnauthorized(c, "Tenant identification required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			respondUnauthorized(c, "Invalid tenant ID format")
			return
		}

		if cfg.Validator != nil {
			if err := cfg.Validator.ValidateTenant(c.Request.Context(), tenantID); err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Tenant validation failed",
					zap.String("tenant_id", raw),
					zap.Error(err),
				)
				respondUnauthorized(c, "Invalid or inactive tenant")
				return
			}
		}

		c.Set(TenantIDKey, tenantID)
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, log = logger.WithTenantID(ctx, log, tenantID.String())
		if userID := GetJWTUserID(c); userID != "" {
			if id, err := uuid.Parse(userID); err == nil {
				c.Set(UserIDKey, id)
				ctx, _ = logger.WithUserID(ctx, log, userID)
			}
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, getRequestIDFromContext(c)))
}

// GetTenantUUID returns the tenant resolved by TenantMiddleware
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(TenantIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GetUserUUID returns the authenticated user id
func GetUserUUID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(UserIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}
