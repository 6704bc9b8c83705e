package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bchsol/CryptoDragon/internal/domain"
)

// Archiver implements domain.SnapshotArchiver by serializing each
// reconciled snapshot to JSON and uploading it to the blob store. Archives
// are append-only history, served back read-only through the API.
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver that uploads through the given writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// Archive uploads one snapshot and returns its storage path.
func (a *Archiver) Archive(ctx context.Context, snap domain.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive snapshot marshal: %w", err)
	}

	path := snapshotPath(snap.Owner, snap.TakenAt)
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive snapshot upload: %w", err)
	}
	return path, nil
}

// snapshotPath builds the object key for one archived snapshot:
//
//	snapshots/0xabc.../20260830T120000Z.json
func snapshotPath(owner string, takenAt time.Time) string {
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	return fmt.Sprintf("snapshots/%s/%s.json", owner, takenAt.UTC().Format("20060102T150405Z"))
}

// Compile-time interface check.
var _ domain.SnapshotArchiver = (*Archiver)(nil)
