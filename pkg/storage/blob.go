package storage

import (
	"context"
	"fmt"
	"io"
)

// BlobStore holds uploaded photos. Objects are content-addressed: Put hashes
// the payload and returns the key, so re-uploading identical bytes is a
// no-op and records can reference photos by stable key.
type BlobStore interface {
	// Put stores content and returns its content-addressed key.
	Put(ctx context.Context, content []byte, contentType string) (string, error)
	// Get opens the object for reading. Returns ErrNotFound for unknown keys.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Delete removes the object. Deleting an unknown key is not an error.
	Delete(ctx context.Context, key string) error
	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
}

// NewBlobStore builds the blob backend selected by cfg.BlobType.
func NewBlobStore(ctx context.Context, cfg Config) (BlobStore, error) {
	switch cfg.BlobType {
	case "", "filesystem":
		return NewFilesystemBlobStore(cfg.BlobRoot)
	case "s3":
		return NewS3BlobStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob storage type %q", cfg.BlobType)
	}
}
