package engine

import (
	"context"
	"fmt"

	"github.com/NiHoel/cirspecte-site/internal/state"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// ensureStore opens the state store on first use.
func (e *Engine) ensureStore() (core.Store, error) {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()

	if e.store != nil {
		return e.store, nil
	}

	path := e.statePath
	if path == "" {
		path = ":memory:"
	}
	e.logger.Debug("opening state store", "path", path)

	store, err := state.OpenSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	version, err := store.GetMigrationVersion()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to read state schema version: %w", err)
	}
	e.logger.Debug("state store ready", "path", path, "schema_version", version)
	e.store = store
	if e.readOnly {
		e.store = wrapReadOnly(store)
	}
	return e.store, nil
}

func wrapReadOnly(s core.Store) core.Store {
	if _, ok := s.(*state.ReadOnlyStore); ok {
		return s
	}
	return state.NewReadOnlyStore(s)
}

// Save persists the current graph, replacing what was stored before, and
// returns the snapshot id.
func (e *Engine) Save(ctx context.Context) (string, error) {
	store, err := e.ensureStore()
	if err != nil {
		return "", err
	}

	snap := e.registry.Snapshot()
	id, err := store.SaveSnapshot(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	e.logger.Info("snapshot saved", "id", id, "entities", snap.Size())
	return id, nil
}

// Restore replaces the graph with the stored snapshot. It returns nil when
// nothing was saved yet, leaving the graph unchanged.
func (e *Engine) Restore(ctx context.Context) (*core.Snapshot, error) {
	store, err := e.ensureStore()
	if err != nil {
		return nil, err
	}

	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil {
		e.logger.Debug("no snapshot stored")
		return nil, nil
	}

	if err := e.registry.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear graph: %w", err)
	}
	if err := e.registry.Restore(snap); err != nil {
		return snap, err
	}
	e.FitWindow()
	e.logger.Info("snapshot restored", "id", snap.ID, "entities", snap.Size())
	return snap, nil
}
