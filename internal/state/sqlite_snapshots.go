package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// SaveSnapshot replaces the stored graph with snap and returns the new
// snapshot id. snap.ID and snap.SavedAt are filled in on success.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *core.Snapshot) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not open")
	}
	if snap == nil {
		return "", fmt.Errorf("nil snapshot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Child tables cascade on the foreign key.
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return "", fmt.Errorf("clear snapshots: %w", err)
	}

	id := generateID()
	savedAt := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, saved_at, entity_count) VALUES (?, ?, ?)`,
		id, savedAt.Format(time.RFC3339Nano), snap.Size(),
	); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	for i, g := range snap.TemporalGroups {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO temporal_groups (snapshot_id, position, id, title, super_group, multiselect)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, g.ID, g.Title, g.SuperGroup, g.Multiselect); err != nil {
			return "", fmt.Errorf("insert temporal group %s: %w", g.ID, err)
		}
	}
	for i, g := range snap.SpatialGroups {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO spatial_groups (snapshot_id, position, id, name, super_group, multiselect)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, g.ID, g.Name, g.SuperGroup, g.Multiselect); err != nil {
			return "", fmt.Errorf("insert spatial group %s: %w", g.ID, err)
		}
	}
	for i, v := range snap.Vertices {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vertices (snapshot_id, position, id, lat, lon, captured_at, path, group_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i, v.ID, v.Coordinates.Lat(), v.Coordinates.Lon(),
			v.Timestamp.UTC().Format(time.RFC3339Nano), v.Path, v.GroupID); err != nil {
			return "", fmt.Errorf("insert vertex %s: %w", v.ID, err)
		}
	}
	for i, e := range snap.Edges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO edges (snapshot_id, position, id, from_vertex, to_vertex, type)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, e.ID, e.From, e.To, string(e.Type)); err != nil {
			return "", fmt.Errorf("insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	snap.ID = id
	snap.SavedAt = savedAt
	return id, nil
}

// LoadSnapshot returns the stored graph, or nil if nothing was saved.
// Entities come back in the order they were saved. Derived fields such as
// Depth, Opposite and the child lists are left for the registry to rebuild.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not open")
	}

	var (
		snap    core.Snapshot
		savedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, saved_at FROM snapshots
		ORDER BY saved_at DESC
		LIMIT 1
	`).Scan(&snap.ID, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return nil, fmt.Errorf("parse saved_at: %w", err)
	}

	if snap.TemporalGroups, err = s.loadTemporalGroups(ctx, snap.ID); err != nil {
		return nil, err
	}
	if snap.SpatialGroups, err = s.loadSpatialGroups(ctx, snap.ID); err != nil {
		return nil, err
	}
	if snap.Vertices, err = s.loadVertices(ctx, snap.ID); err != nil {
		return nil, err
	}
	if snap.Edges, err = s.loadEdges(ctx, snap.ID); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) loadTemporalGroups(ctx context.Context, snapshotID string) ([]core.TemporalGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, super_group, multiselect FROM temporal_groups
		WHERE snapshot_id = ? ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query temporal groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []core.TemporalGroup
	for rows.Next() {
		var g core.TemporalGroup
		if err := rows.Scan(&g.ID, &g.Title, &g.SuperGroup, &g.Multiselect); err != nil {
			return nil, fmt.Errorf("scan temporal group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *SQLiteStore) loadSpatialGroups(ctx context.Context, snapshotID string) ([]core.SpatialGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, super_group, multiselect FROM spatial_groups
		WHERE snapshot_id = ? ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query spatial groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []core.SpatialGroup
	for rows.Next() {
		var g core.SpatialGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.SuperGroup, &g.Multiselect); err != nil {
			return nil, fmt.Errorf("scan spatial group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *SQLiteStore) loadVertices(ctx context.Context, snapshotID string) ([]core.Vertex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lat, lon, captured_at, path, group_id FROM vertices
		WHERE snapshot_id = ? ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query vertices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vertices []core.Vertex
	for rows.Next() {
		var (
			v          core.Vertex
			lat, lon   float64
			capturedAt string
		)
		if err := rows.Scan(&v.ID, &lat, &lon, &capturedAt, &v.Path, &v.GroupID); err != nil {
			return nil, fmt.Errorf("scan vertex: %w", err)
		}
		v.Coordinates = core.LatLon{lat, lon}
		if v.Timestamp, err = time.Parse(time.RFC3339Nano, capturedAt); err != nil {
			return nil, fmt.Errorf("parse timestamp of vertex %s: %w", v.ID, err)
		}
		vertices = append(vertices, v)
	}
	return vertices, rows.Err()
}

func (s *SQLiteStore) loadEdges(ctx context.Context, snapshotID string) ([]core.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_vertex, to_vertex, type FROM edges
		WHERE snapshot_id = ? ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []core.Edge
	for rows.Next() {
		var (
			e   core.Edge
			typ string
		)
		if err := rows.Scan(&e.ID, &e.From, &e.To, &typ); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Type = core.EdgeType(typ)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
