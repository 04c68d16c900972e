package storage

import (
	"context"
	"fmt"

	"plategate/internal/config"
	"plategate/internal/constants"
)

// Backend is a Store that can report its own health.
type Backend interface {
	Store
	Name() string
	Check(ctx context.Context) error
}

// New builds the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case constants.StorageTypeFilesystem, "":
		return NewFilesystemStore(cfg.Root, cfg.SanitizeFilenames), nil
	case constants.StorageTypeS3:
		return NewS3Store(ctx, S3Options{
			Bucket:   cfg.S3.Bucket,
			Prefix:   cfg.S3.Prefix,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
			Gzip:     cfg.S3.Gzip,
			Timeout:  cfg.S3.Timeout,
			Sanitize: cfg.SanitizeFilenames,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
