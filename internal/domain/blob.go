package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to the configured blob store.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves stored objects and enumerates them by prefix.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// BlobInfo describes one stored object.
type BlobInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// SnapshotArchiver persists reconciled snapshots for later inspection. It
// returns the storage path of the archived snapshot.
type SnapshotArchiver interface {
	Archive(ctx context.Context, snap Snapshot) (string, error)
}
