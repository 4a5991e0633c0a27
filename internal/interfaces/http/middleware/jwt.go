package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/calibra/backend/internal/infrastructure/auth"
	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTClaimsKey holds the validated *auth.Claims in the gin context
const JWTClaimsKey = "jwt_claims"

var errMissingBearer = errors.New("missing bearer token")

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional. Lookups fail open.
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are served without a token
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig skips the health check and the token endpoints
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/health", "/api/v1/auth/login", "/api/v1/auth/refresh"},
	}
}

// JWTAuthMiddleware authenticates with the default configuration
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig requires a valid, unrevoked bearer access token
// and stores its claims for the tenant and permission middleware.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			rejectToken(c, log, errMissingBearer)
			return
		}
		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			rejectToken(c, log, err)
			return
		}
		if cfg.TokenBlacklist != nil && revoked(c, cfg.TokenBlacklist, claims, log) {
			rejectToken(c, log, auth.ErrTokenRevoked)
			return
		}

		c.Set(JWTClaimsKey, claims)
		ctx := c.Request.Context()
		reqLog := logger.FromContext(ctx)
		ctx, reqLog = logger.WithUserID(ctx, reqLog, claims.UserID)
		ctx, _ = logger.WithTenantID(ctx, reqLog, claims.TenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectToken(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))

	code, message := dto.ErrCodeTokenInvalid, "Invalid token"
	switch {
	case errors.Is(err, errMissingBearer):
		message = "Missing bearer token"
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, getRequestIDFromContext(c)))
}

// revoked checks the jti and the user-wide cutoff
func revoked(c *gin.Context, bl auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) bool {
	ctx := c.Request.Context()
	if claims.ID != "" {
		hit, err := bl.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Error("Token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		} else if hit {
			return true
		}
	}
	hit, err := bl.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		log.Error("Token blacklist lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return false
	}
	return hit
}

// GetJWTClaims returns the validated claims, nil on public routes
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		claims, _ := v.(*auth.Claims)
		return claims
	}
	return nil
}

// GetJWTUserID returns the token subject or ""
func GetJWTUserID(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// GetJWTTenantID returns the token tenant or ""
func GetJWTTenantID(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.TenantID
	}
	return ""
}
