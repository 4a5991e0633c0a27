package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	inactive map[uuid.UUID]bool
}

func (s stubValidator) ValidateTenant(_ context.Context, id uuid.UUID) error {
	if s.inactive[id] {
		return errors.New("tenant inactive")
	}
	return nil
}

func TestTenantMiddleware_FromToken(t *testing.T) {
	jwtService := newTestJWTService()
	token, sub := tokenFor(t, jwtService, []string{"technician"}, nil)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService), TenantMiddleware(DefaultTenantConfig()))
	router.GET("/test", func(c *gin.Context) {
		tenantID, ok := GetTenantUUID(c)
		require.True(t, ok)
		assert.Equal(t, sub.TenantID, tenantID)
		userID, ok := GetUserUUID(c)
		require.True(t, ok)
		assert.Equal(t, sub.UserID, userID)
		assert.Equal(t, sub.TenantID.String(), logger.GetTenantID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doGet(router, "/test", token).Code)
}

func TestTenantMiddleware_TokenBeatsHeader(t *testing.T) {
	jwtService := newTestJWTService()
	token, sub := tokenFor(t, jwtService, nil, nil)
	cfg := DefaultTenantConfig()
	cfg.HeaderEnabled = true

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService), TenantMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		tenantID, _ := GetTenantUUID(c)
		assert.Equal(t, sub.TenantID, tenantID)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(TenantHeaderKey, uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantMiddleware_Header(t *testing.T) {
	tenantID := uuid.New()
	tests := []struct {
		name    string
		enabled bool
		header  string
		status  int
	}{
		{"header disabled", false, tenantID.String(), http.StatusUnauthorized},
		{"header enabled", true, tenantID.String(), http.StatusOK},
		{"missing", true, "", http.StatusUnauthorized},
		{"not a uuid", true, "acme", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTenantConfig()
			cfg.HeaderEnabled = tt.enabled
			router := gin.New()
			router.Use(TenantMiddleware(cfg))
			router.GET("/test", okHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(TenantHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestTenantMiddleware_Validator(t *testing.T) {
	jwtService := newTestJWTService()
	token, sub := tokenFor(t, jwtService, nil, nil)
	cfg := DefaultTenantConfig()
	cfg.Validator = stubValidator{inactive: map[uuid.UUID]bool{sub.TenantID: true}}

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService), TenantMiddleware(cfg))
	router.GET("/test", okHandler)

	rec := doGet(router, "/test", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestTenantMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(TenantMiddleware(DefaultTenantConfig()))
	router.GET("/health", okHandler)
	router.GET("/swagger/index.html", okHandler)

	assert.Equal(t, http.StatusOK, doGet(router, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doGet(router, "/swagger/index.html", "").Code)
}
