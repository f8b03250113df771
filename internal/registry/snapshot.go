package registry

import (
	"errors"
	"fmt"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Snapshot copies the whole graph into a flat, parent-first snapshot. Groups
// are listed by walking the nesting tree in declaration order, vertices in
// the order of their group's vertex list and edges in the order of their
// source vertex's outgoing list, so replaying the snapshot through Restore
// recreates every ordered child list as it was. Roots, and anything the walk
// does not reach, follow in id order.
func (r *Registry) Snapshot() *core.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := &core.Snapshot{}
	// Ids are unique per kind only.
	seenTemporal := make(map[string]bool)

	var walk func(g *core.TemporalGroup)
	walk = func(g *core.TemporalGroup) {
		if seenTemporal[g.ID] {
			return
		}
		seenTemporal[g.ID] = true
		snap.TemporalGroups = append(snap.TemporalGroups, *g.Clone())
		for _, id := range g.SubGroups {
			if sub, ok := r.temporal[id]; ok {
				walk(sub)
			}
		}
	}
	temporal := sortedValues(r.temporal, func(g *core.TemporalGroup) string { return g.ID })
	for _, g := range temporal {
		if _, nested := r.temporal[g.SuperGroup]; !nested {
			walk(g)
		}
	}
	for _, g := range temporal {
		walk(g)
	}

	seenSpatial := make(map[string]bool)
	addSpatial := func(g *core.SpatialGroup) {
		if !seenSpatial[g.ID] {
			seenSpatial[g.ID] = true
			snap.SpatialGroups = append(snap.SpatialGroups, *g.Clone())
		}
	}
	for _, t := range snap.TemporalGroups {
		for _, id := range t.SpatialGroups {
			if g, ok := r.spatial[id]; ok {
				addSpatial(g)
			}
		}
	}
	for _, g := range sortedValues(r.spatial, func(g *core.SpatialGroup) string { return g.ID }) {
		addSpatial(g)
	}

	seenVertices := make(map[string]bool)
	addVertex := func(v *core.Vertex) {
		if !seenVertices[v.ID] {
			seenVertices[v.ID] = true
			snap.Vertices = append(snap.Vertices, *v.Clone())
		}
	}
	for _, g := range snap.SpatialGroups {
		for _, id := range g.Vertices {
			if v, ok := r.vertices[id]; ok {
				addVertex(v)
			}
		}
	}
	for _, v := range sortedValues(r.vertices, func(v *core.Vertex) string { return v.ID }) {
		addVertex(v)
	}

	seenEdges := make(map[string]bool)
	addEdge := func(e *core.Edge) {
		if !seenEdges[e.ID] {
			seenEdges[e.ID] = true
			snap.Edges = append(snap.Edges, *e)
		}
	}
	for _, v := range snap.Vertices {
		for _, id := range v.Outgoing {
			if e, ok := r.edges[id]; ok {
				addEdge(e)
			}
		}
	}
	for _, e := range sortedValues(r.edges, func(e *core.Edge) string { return e.ID }) {
		addEdge(e)
	}
	return snap
}

// Restore replays a snapshot through the regular create operations, so every
// entity produces its Create event. Entities that already exist are kept.
func (r *Registry) Restore(snap *core.Snapshot) error {
	if snap == nil {
		return nil
	}

	var errs []error
	for _, g := range snap.TemporalGroups {
		_, err := r.CreateTemporalGroup(core.TemporalGroupSpec{
			ID: g.ID, Title: g.Title, SuperGroup: g.SuperGroup, Multiselect: g.Multiselect,
		})
		errs = append(errs, err)
	}
	for _, g := range snap.SpatialGroups {
		_, err := r.CreateSpatialGroup(core.SpatialGroupSpec{
			ID: g.ID, Name: g.Name, SuperGroup: g.SuperGroup, Multiselect: g.Multiselect,
		})
		errs = append(errs, err)
	}
	for _, v := range snap.Vertices {
		_, err := r.CreateVertex(core.VertexSpec{
			ID: v.ID, Coordinates: v.Coordinates, Timestamp: v.Timestamp, Path: v.Path, GroupID: v.GroupID,
		})
		errs = append(errs, err)
	}
	for _, e := range snap.Edges {
		_, err := r.CreateEdge(core.EdgeSpec{ID: e.ID, From: e.From, To: e.To, Type: e.Type})
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}
