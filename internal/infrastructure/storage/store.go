package storage

import (
	"context"
	"fmt"
	"time"

	"grimoire-backend/internal/config"
)

// FileInfo describes one stored image file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FileStore persists transcoded cover images. Two drivers exist: local disk
// (served by the API's /images route) and MinIO object storage.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]FileInfo, error)

	// PublicURL builds the URL a client can fetch the file from. base is the
	// scheme://host of the current request; the minio driver ignores it and
	// points at the bucket instead.
	PublicURL(base, name string) string
}

// New selects a driver from configuration.
func New(cfg config.StorageConfig, uploadDir string) (FileStore, error) {
	switch cfg.Driver {
	case "local":
		return NewLocalStore(uploadDir)
	case "minio":
		return NewMinIOStore(cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
