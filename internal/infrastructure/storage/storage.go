// Package storage keeps uploaded and generated files (bank statements,
// commission statement PDFs) in S3 or on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned when a key does not exist
var ErrObjectNotFound = errors.New("object not found")

// Store is the object storage used by the application
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// URL returns a link valid for ttl (presigned for S3)
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// New builds the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalPath)
	case "s3":
		s, err := NewS3Store(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// TenantKey builds "<tenant>/<area>/<yyyy>/<mm>/<uuid>-<name>".
// Names are reduced to their base name so callers cannot escape the tenant prefix.
func TenantKey(tenantID uuid.UUID, area, name string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s/%s/%04d/%02d/%s-%s", tenantID, area, now.Year(), int(now.Month()), uuid.NewString(), base)
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
