// Package storage persists attachment bytes on local disk or in a MinIO bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"bulletin/internal/config"
)

// ErrNotFound is returned by Open and Remove when no object has the given name.
var ErrNotFound = errors.New("storage: object not found")

// Store writes, reads and removes attachment objects by stored name.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
	Backend() string
}

// New builds the store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStore(cfg.UploadDir)
	case "minio":
		return NewMinioStore(ctx, MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}
