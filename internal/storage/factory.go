package storage

import (
	"context"
	"fmt"

	"alcyxob/dating-app/internal/config"

	"github.com/rs/zerolog"
)

// New builds the ObjectStore selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (ObjectStore, error) {
	switch cfg.Backend {
	case "s3", "":
		return NewS3Storage(ctx, cfg, logger)
	case "minio":
		store, err := NewMinioStorage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "gcs":
		return NewGCSStorage(ctx, cfg, logger)
	case "memory":
		return NewMemoryStorage(cfg.Bucket, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
