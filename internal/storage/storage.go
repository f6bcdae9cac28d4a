package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/BerylCAtieno/intpatient-api/internal/config"
)

var ErrNotFound = errors.New("object not found")

// Storage keeps the raw bytes of uploaded files under opaque keys.
type Storage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New returns the backend selected by STORAGE_BACKEND.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return NewS3Storage(cfg)
	case config.StorageLocal:
		return NewLocalStorage(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
