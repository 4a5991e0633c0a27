package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "tenant/statements/2026/03/extrato.ofx"
	require.NoError(t, store.Put(ctx, key, []byte("<OFX>"), "application/x-ofx"))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "<OFX>", string(data))

	u, err := store.URL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "extrato.ofx"))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, store.Delete(ctx, key), "deleting twice is fine")
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../etc/passwd", "/abs/path", "a/../../b"} {
		assert.Error(t, store.Put(ctx, key, []byte("x"), "text/plain"), key)
	}
}

func TestTenantKey(t *testing.T) {
	tenantID := uuid.New()
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	key := TenantKey(tenantID, "statements", "../../secret/extrato.ret", now)
	assert.True(t, strings.HasPrefix(key, tenantID.String()+"/statements/2026/03/"))
	assert.True(t, strings.HasSuffix(key, "-extrato.ret"))
	assert.NotContains(t, key, "..")
	require.NoError(t, validateKey(key))

	assert.True(t, strings.HasSuffix(TenantKey(tenantID, "x", "  ", now), "-file"))
	assert.True(t, strings.HasSuffix(TenantKey(tenantID, "x", `C:\docs\a.pdf`, now), "-a.pdf"))
}

func TestNew_SelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StorageConfig{Driver: "local", LocalPath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(ctx, config.StorageConfig{Driver: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, `unknown storage driver "ftp"`)

	_, err = New(ctx, config.StorageConfig{Driver: "s3"}, zap.NewNop())
	assert.ErrorContains(t, err, "bucket is required")
}

func TestNewS3Store(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3Store(ctx, config.StorageConfig{Bucket: "b", AccessKey: "only-key"})
	assert.ErrorContains(t, err, "must be set together")

	s, err := NewS3Store(ctx, config.StorageConfig{
		Bucket:    "calibra-docs",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		PathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "calibra-docs", s.Bucket())

	u, err := s.URL(ctx, "tenant/statements/x.ofx", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "http://localhost:9000/calibra-docs/tenant/statements/x.ofx")
	assert.Contains(t, u, "X-Amz-Expires=60")

	assert.Error(t, s.Put(ctx, "../x", nil, "text/plain"))
}
