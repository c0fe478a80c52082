// Package storage abstracts object storage behind opaque refs. The rest
// of the pipeline reads and writes bytes only through this interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/songmasher/api/internal/config"
)

// ErrNotFound is returned when a ref does not resolve to an object.
var ErrNotFound = errors.New("storage: object not found")

// Store is the object storage contract. Put returns an opaque ref that
// only this interface knows how to resolve again.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	SignedURL(ctx context.Context, ref string, expiry time.Duration) (string, error)
}

// New builds a Store from configuration: "s3" for S3-compatible object
// storage (AWS, MinIO, R2), anything else a local directory store.
func New(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Kind {
	case "s3":
		return NewS3Store(cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("storage: unknown kind %q", cfg.Kind)
	}
}
