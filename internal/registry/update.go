package registry

import (
	"fmt"
	"time"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// GroupChange is the Value of an ActionUpdate event caused by moving an
// entity to a different parent group.
type GroupChange struct {
	From string
	To   string
}

// MoveVertex reassigns a vertex to another spatial group. Both groups' vertex
// sets are updated before the Update event is emitted.
func (r *Registry) MoveVertex(vertexID, groupID string) error {
	r.mu.Lock()
	v, ok := r.vertices[vertexID]
	if !ok {
		r.mu.Unlock()
		return &core.ReferenceError{Kind: core.KindVertex, ID: vertexID}
	}
	target, ok := r.spatial[groupID]
	if !ok {
		r.mu.Unlock()
		return &core.ReferenceError{Kind: core.KindVertex, ID: vertexID, Missing: "spatialGroup " + groupID}
	}
	if v.GroupID == groupID {
		r.mu.Unlock()
		return nil
	}

	change := GroupChange{From: v.GroupID, To: groupID}
	if old := r.spatial[v.GroupID]; old != nil {
		old.Vertices = removeID(old.Vertices, vertexID)
	}
	target.Vertices = append(target.Vertices, vertexID)
	v.GroupID = groupID
	r.mu.Unlock()

	return r.emit(core.KindVertex, core.ActionUpdate, vertexID, v, change)
}

// MoveSpatialGroup reassigns a spatial group to another temporal group.
func (r *Registry) MoveSpatialGroup(groupID, temporalID string) error {
	r.mu.Lock()
	g, ok := r.spatial[groupID]
	if !ok {
		r.mu.Unlock()
		return &core.ReferenceError{Kind: core.KindSpatialGroup, ID: groupID}
	}
	target, ok := r.temporal[temporalID]
	if !ok {
		r.mu.Unlock()
		return &core.ReferenceError{Kind: core.KindSpatialGroup, ID: groupID, Missing: "temporalGroup " + temporalID}
	}
	if g.SuperGroup == temporalID {
		r.mu.Unlock()
		return nil
	}

	change := GroupChange{From: g.SuperGroup, To: temporalID}
	if old := r.temporal[g.SuperGroup]; old != nil {
		old.SpatialGroups = removeID(old.SpatialGroups, groupID)
	}
	target.SpatialGroups = append(target.SpatialGroups, groupID)
	g.SuperGroup = temporalID
	g.Depth = target.Depth + 1
	r.mu.Unlock()

	return r.emit(core.KindSpatialGroup, core.ActionUpdate, groupID, g, change)
}

// MoveTemporalGroup nests a temporal group inside superID, or makes it a root
// when superID is empty. Moving a group below itself fails with core.ErrCycle.
func (r *Registry) MoveTemporalGroup(groupID, superID string) error {
	r.mu.Lock()
	g, ok := r.temporal[groupID]
	if !ok {
		r.mu.Unlock()
		return &core.ReferenceError{Kind: core.KindTemporalGroup, ID: groupID}
	}
	if g.SuperGroup == superID {
		r.mu.Unlock()
		return nil
	}

	var target *core.TemporalGroup
	if superID != "" {
		target, ok = r.temporal[superID]
		if !ok {
			r.mu.Unlock()
			return &core.ReferenceError{Kind: core.KindTemporalGroup, ID: groupID, Missing: "temporalGroup " + superID}
		}
		for cur := target; cur != nil; cur = r.temporal[cur.SuperGroup] {
			if cur.ID == groupID {
				r.mu.Unlock()
				return &core.ValidationError{
					Kind:   core.KindTemporalGroup,
					ID:     groupID,
					Field:  "superGroup",
					Reason: fmt.Sprintf("%s is nested inside %s", superID, groupID),
					Err:    core.ErrCycle,
				}
			}
		}
	}

	change := GroupChange{From: g.SuperGroup, To: superID}
	if old := r.temporal[g.SuperGroup]; old != nil {
		old.SubGroups = removeID(old.SubGroups, groupID)
	}
	depth := 0
	if target != nil {
		target.SubGroups = append(target.SubGroups, groupID)
		depth = target.Depth + 1
	}
	g.SuperGroup = superID
	r.setDepthLocked(g, depth)
	r.mu.Unlock()

	return r.emit(core.KindTemporalGroup, core.ActionUpdate, groupID, g, change)
}

// setDepthLocked recomputes depths for g and everything nested below it.
func (r *Registry) setDepthLocked(g *core.TemporalGroup, depth int) {
	g.Depth = depth
	for _, id := range g.SpatialGroups {
		if sg := r.spatial[id]; sg != nil {
			sg.Depth = depth + 1
		}
	}
	for _, id := range g.SubGroups {
		if sub := r.temporal[id]; sub != nil {
			r.setDepthLocked(sub, depth+1)
		}
	}
}

// SetCoordinates moves a vertex. Writing the coordinates it already has is a
// no-op and emits nothing.
func (r *Registry) SetCoordinates(vertexID string, c core.LatLon) error {
	if !c.Valid() {
		return &core.ValidationError{Kind: core.KindVertex, ID: vertexID, Field: "coordinates", Reason: fmt.Sprintf("out of range: %v", c)}
	}

	r.mu.Lock()
	v, ok := r.vertices[vertexID]
	if !ok {
		r.mu.Unlock()
		return &core.ReferenceError{Kind: core.KindVertex, ID: vertexID}
	}
	if v.Coordinates.Equal(c) {
		r.mu.Unlock()
		return nil
	}
	v.Coordinates = c
	r.mu.Unlock()

	return r.emit(core.KindVertex, core.ActionUpdate, vertexID, v, c)
}

// SetTimestamp changes when a vertex was captured.
func (r *Registry) SetTimestamp(vertexID string, t time.Time) error {
	if t.IsZero() {
		return &core.ValidationError{Kind: core.KindVertex, ID: vertexID, Field: "timestamp", Reason: "required"}
	}

	r.mu.Lock()
	v, ok := r.vertices[vertexID]
	if !ok {
		r.mu.Unlock()
		return &core.ReferenceError{Kind: core.KindVertex, ID: vertexID}
	}
	if v.Timestamp.Equal(t) {
		r.mu.Unlock()
		return nil
	}
	v.Timestamp = t
	r.mu.Unlock()

	return r.emit(core.KindVertex, core.ActionUpdate, vertexID, v, t)
}
