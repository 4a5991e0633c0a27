package auth

import (
	"testing"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-with-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "calibra-test",
		MaxRefreshCount:        2,
	})
}

func testSubject() Subject {
	return Subject{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "ana@lab.test",
		Roles:       []string{"technician"},
		Permissions: []string{"work_orders.update_status"},
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	sub := testSubject()

	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sub.TenantID.String(), claims.TenantID)
	assert.Equal(t, sub.UserID.String(), claims.UserID)
	assert.Equal(t, "ana@lab.test", claims.Username)
	assert.True(t, claims.HasRole("technician"))
	assert.True(t, claims.HasPermission("work_orders.update_status"))
	assert.False(t, claims.HasPermission("commissions.settlements.pay"))
	assert.NotEmpty(t, claims.ID)

	tenantID, err := claims.TenantUUID()
	require.NoError(t, err)
	assert.Equal(t, sub.TenantID, tenantID)

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, refreshClaims.Permissions)
	assert.Equal(t, 0, refreshClaims.RefreshCount)
}

func TestJWTService_RejectsWrongType(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                 "same-secret-for-both-token-kinds-32c",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
	pair, err := svc.GenerateTokenPair(testSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWTService()
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }
	pair, err := svc.GenerateTokenPair(testSubject())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_InvalidSignatureAndGarbage(t *testing.T) {
	svc := newTestJWTService()
	other := NewJWTService(config.JWTConfig{Secret: "another-secret-entirely-32-characters", AccessTokenExpiration: time.Minute})

	pair, err := other.GenerateTokenPair(testSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{TenantID: uuid.NewString(), UserID: uuid.NewString(), TokenType: TokenTypeAccess}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_MissingClaims(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
		UserID:           uuid.NewString(),
		TokenType:        TokenTypeAccess,
	}
	token, err := sign(claims, svc.accessSecret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrMissingTenantID)
}

func TestJWTService_Refresh(t *testing.T) {
	svc := newTestJWTService()
	sub := testSubject()
	pair, err := svc.GenerateTokenPair(sub)
	require.NoError(t, err)

	next, old, err := svc.RefreshTokenPair(pair.RefreshToken, []string{"manager"}, []string{"finance.receivables.pay"})
	require.NoError(t, err)
	assert.Equal(t, sub.UserID.String(), old.UserID)

	access, err := svc.ValidateAccessToken(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"manager"}, access.Roles)
	assert.True(t, access.HasPermission("finance.receivables.pay"))

	refresh, err := svc.ValidateRefreshToken(next.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, refresh.RefreshCount)

	third, _, err := svc.RefreshTokenPair(next.RefreshToken, nil, nil)
	require.NoError(t, err)
	_, _, err = svc.RefreshTokenPair(third.RefreshToken, nil, nil)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Now()
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute))}}
	assert.InDelta(t, (10 * time.Minute).Seconds(), c.RemainingTTL(now).Seconds(), 1)
	assert.Equal(t, time.Duration(0), c.RemainingTTL(now.Add(time.Hour)))
	assert.Equal(t, time.Duration(0), (&Claims{}).RemainingTTL(now))
}
