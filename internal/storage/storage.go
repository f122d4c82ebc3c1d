package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("snapshot not found")

// SnapshotStore persists whole cart snapshots under a single key.
// Each Save overwrites the previous value.
type SnapshotStore interface {
	// Load returns ErrNotFound when nothing was saved under key yet.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, snapshot []byte) error
	Close() error
}
