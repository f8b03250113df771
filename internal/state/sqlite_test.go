package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSnapshot() *core.Snapshot {
	t0 := time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)
	return &core.Snapshot{
		TemporalGroups: []core.TemporalGroup{
			{ID: "2019", Title: "2019"},
			{ID: "may", Title: "May", SuperGroup: "2019", Multiselect: true},
		},
		SpatialGroups: []core.SpatialGroup{
			{ID: "square", Name: "Market square", SuperGroup: "may"},
		},
		Vertices: []core.Vertex{
			{ID: "v1", Coordinates: core.LatLon{49.01, 8.4}, Timestamp: t0, Path: "img/v1.jpg", GroupID: "square"},
			{ID: "v2", Coordinates: core.LatLon{49.02, 8.41}, Timestamp: t0.Add(90 * time.Second), GroupID: "square"},
		},
		Edges: []core.Edge{
			{ID: "v1->v2", From: "v1", To: "v2", Type: core.EdgeRoute},
			{ID: "v2->v1", From: "v2", To: "v1", Type: core.EdgeRoute},
		},
	}
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	tables := []string{"snapshots", "temporal_groups", "spatial_groups", "vertices", "edges"}
	for _, table := range tables {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			_ = rows.Close()
		}
	}

	version, err := store.GetMigrationVersion()
	if err != nil {
		t.Fatalf("failed to get migration version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected migration version 1, got %d", version)
	}

	// Running again is a no-op.
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestSQLiteStore_MigrateUnopened(t *testing.T) {
	store := NewSQLiteStore()
	if err := store.Migrate(); err == nil {
		t.Fatal("expected error migrating unopened store")
	}
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store := setupTestStore(t)

	snap, err := store.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	want := testSnapshot()
	id, err := store.SaveSnapshot(ctx, want)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if id == "" || want.ID != id {
		t.Fatalf("expected snapshot id to be set, got %q (snap.ID %q)", id, want.ID)
	}
	if want.SavedAt.IsZero() {
		t.Error("expected SavedAt to be set")
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected snapshot, got nil")
	}
	if got.ID != id {
		t.Errorf("expected id %q, got %q", id, got.ID)
	}
	if got.Size() != want.Size() {
		t.Fatalf("expected %d entities, got %d", want.Size(), got.Size())
	}

	if got.TemporalGroups[1].SuperGroup != "2019" || !got.TemporalGroups[1].Multiselect {
		t.Errorf("temporal group not preserved: %+v", got.TemporalGroups[1])
	}
	if got.SpatialGroups[0].Name != "Market square" {
		t.Errorf("spatial group name not preserved: %+v", got.SpatialGroups[0])
	}
	for i, v := range got.Vertices {
		w := want.Vertices[i]
		if v.ID != w.ID || !v.Coordinates.Equal(w.Coordinates) || !v.Timestamp.Equal(w.Timestamp) ||
			v.Path != w.Path || v.GroupID != w.GroupID {
			t.Errorf("vertex %d: expected %+v, got %+v", i, w, v)
		}
	}
	for i, e := range got.Edges {
		w := want.Edges[i]
		if e.ID != w.ID || e.From != w.From || e.To != w.To || e.Type != w.Type {
			t.Errorf("edge %d: expected %+v, got %+v", i, w, e)
		}
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	smaller := &core.Snapshot{TemporalGroups: []core.TemporalGroup{{ID: "2020"}}}
	id, err := store.SaveSnapshot(ctx, smaller)
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM vertices").Scan(&count); err != nil {
		t.Fatalf("count vertices: %v", err)
	}
	if count != 0 {
		t.Errorf("expected old vertices to be removed, found %d", count)
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if got.ID != id || got.Size() != 1 || got.TemporalGroups[0].ID != "2020" {
		t.Errorf("expected only the second snapshot, got %+v", got)
	}
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := context.Background()

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to open file store: %v", err)
	}
	if store.Path() != path {
		t.Errorf("expected path %q, got %q", path, store.Path())
	}
	if _, err := store.SaveSnapshot(ctx, testSnapshot()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if got == nil || got.Size() != testSnapshot().Size() {
		t.Fatalf("expected persisted snapshot, got %+v", got)
	}
}

func TestSQLiteStore_NotOpen(t *testing.T) {
	store := NewSQLiteStore()
	ctx := context.Background()

	if _, err := store.SaveSnapshot(ctx, testSnapshot()); err == nil {
		t.Error("expected error saving to unopened store")
	}
	if _, err := store.LoadSnapshot(ctx); err == nil {
		t.Error("expected error loading from unopened store")
	}
	if err := store.Close(); err != nil {
		t.Errorf("closing unopened store should succeed, got %v", err)
	}
}
