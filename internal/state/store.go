// Package state persists tour graph snapshots in SQLite.
package state

import (
	"context"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Store is an alias for core.Store.
type Store = core.Store

// ReadOnlyStore exposes a store for loading only. Saving through it fails
// with *core.UnsupportedOperationError.
type ReadOnlyStore struct {
	inner core.Store
}

// NewReadOnlyStore wraps inner.
func NewReadOnlyStore(inner core.Store) *ReadOnlyStore {
	return &ReadOnlyStore{inner: inner}
}

// SaveSnapshot always fails.
func (s *ReadOnlyStore) SaveSnapshot(context.Context, *core.Snapshot) (string, error) {
	return "", &core.UnsupportedOperationError{Op: "SaveSnapshot", Collaborator: "read-only store"}
}

// LoadSnapshot delegates to the wrapped store.
func (s *ReadOnlyStore) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	return s.inner.LoadSnapshot(ctx)
}

// Close closes the wrapped store.
func (s *ReadOnlyStore) Close() error {
	return s.inner.Close()
}

var (
	_ core.Store = (*SQLiteStore)(nil)
	_ core.Store = (*ReadOnlyStore)(nil)
)
