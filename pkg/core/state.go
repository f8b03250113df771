package core

import (
	"context"
	"time"
)

// Snapshot is a flat, persistable copy of the whole tour graph.
// Entities are listed parent-first so replaying them in order recreates the graph.
type Snapshot struct {
	ID             string
	SavedAt        time.Time
	TemporalGroups []TemporalGroup
	SpatialGroups  []SpatialGroup
	Vertices       []Vertex
	Edges          []Edge
}

// Size returns the number of entities in the snapshot.
func (s *Snapshot) Size() int {
	return len(s.TemporalGroups) + len(s.SpatialGroups) + len(s.Vertices) + len(s.Edges)
}

// Store persists tour graph snapshots.
type Store interface {
	// SaveSnapshot replaces the stored graph and returns the new snapshot id.
	SaveSnapshot(ctx context.Context, snap *Snapshot) (string, error)
	// LoadSnapshot returns the most recently saved graph, or nil if none was saved.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}
