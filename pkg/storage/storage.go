// Package storage provides read access to data files on the local
// filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// Storage defines the interface for reading data files
type Storage interface {
	// Open returns a reader for the file stored under key
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Stat returns metadata for a file without reading it
	Stat(ctx context.Context, key string) (*FileInfo, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Config holds storage configuration
type Config struct {
	Type StorageType

	// Local storage config
	LocalPath string

	// S3 storage config
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string // For S3-compatible services (MinIO, etc.)
}

// New creates a new Storage implementation based on configuration
func New(ctx context.Context, cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeS3:
		return NewS3Storage(ctx, cfg)
	case StorageTypeLocal:
		fallthrough
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// Handle exposes a stored file as an import file handle.
type Handle struct {
	st  Storage
	key string
}

// NewHandle references key in st.
func NewHandle(st Storage, key string) *Handle {
	return &Handle{st: st, key: key}
}

func (h *Handle) Name() string { return h.key }

func (h *Handle) Open(ctx context.Context) (io.ReadCloser, error) {
	return h.st.Open(ctx, h.key)
}
