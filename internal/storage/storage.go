// Package storage abstracts where submission files live. The portal
// addresses files by a relative path derived from talk id and version;
// the backend is either a local directory tree or an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage is the file backend for submission uploads.
type Storage interface {
	// Save stores a file at the given path, creating parents as needed.
	Save(ctx context.Context, path string, reader io.Reader) error

	// Get opens the file at the given path for reading.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the file at the given path. A missing file is not
	// an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether anything is stored at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and parameterises a backend.
type Config struct {
	Type      string // local or s3
	BasePath  string // for local storage
	Bucket    string // for s3
	Region    string // for s3
	AccessKey string // for s3
	SecretKey string // for s3
	Endpoint  string // for s3-compatible stores (MinIO etc.)
}

// NewStorage builds the backend named by cfg.Type.
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
