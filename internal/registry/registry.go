// Package registry owns the canonical mapping from ids to tour graph entities.
// Every create, delete and update is published on the event bus after the
// mutation is complete, so projections can mirror the graph without holding
// references into it.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/NiHoel/cirspecte-site/internal/eventbus"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Registry maps ids to vertices, edges, spatial groups and temporal groups.
//
// Entities returned by the registry are owned by it; callers must treat them
// as read-only and go through the registry to mutate.
type Registry struct {
	mu sync.RWMutex

	bus    *eventbus.Bus
	logger *slog.Logger

	vertices map[string]*core.Vertex
	edges    map[string]*core.Edge
	spatial  map[string]*core.SpatialGroup
	temporal map[string]*core.TemporalGroup

	// incoming maps a vertex id to the ids of edges ending at it.
	// Outgoing edges live on the vertex itself.
	incoming map[string][]string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an empty registry publishing on bus.
func New(bus *eventbus.Bus, opts ...Option) *Registry {
	r := &Registry{
		bus:      bus,
		logger:   slog.New(slog.DiscardHandler),
		vertices: make(map[string]*core.Vertex),
		edges:    make(map[string]*core.Edge),
		spatial:  make(map[string]*core.SpatialGroup),
		temporal: make(map[string]*core.TemporalGroup),
		incoming: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bus returns the bus the registry publishes on.
func (r *Registry) Bus() *eventbus.Bus {
	return r.bus
}

func (r *Registry) emit(kind core.EntityKind, action core.Action, id string, entity any, value any) error {
	if r.bus == nil {
		return nil
	}
	r.logger.Debug("emit", "kind", kind, "action", action, "id", id)
	return r.bus.Emit(core.Event{Kind: kind, Action: action, ID: id, Entity: entity, Value: value})
}

// --- Create ---

// CreateTemporalGroup registers a temporal group. If the id is already
// registered the existing group is returned unchanged and nothing is emitted.
func (r *Registry) CreateTemporalGroup(spec core.TemporalGroupSpec) (*core.TemporalGroup, error) {
	if spec.ID == "" {
		return nil, &core.ValidationError{Kind: core.KindTemporalGroup, Field: "id", Reason: "required"}
	}

	r.mu.Lock()
	if existing, ok := r.temporal[spec.ID]; ok {
		r.mu.Unlock()
		return existing, nil
	}

	group := &core.TemporalGroup{
		ID:          spec.ID,
		Title:       spec.Title,
		SuperGroup:  spec.SuperGroup,
		Multiselect: spec.Multiselect,
	}
	if spec.SuperGroup != "" {
		parent, ok := r.temporal[spec.SuperGroup]
		if !ok {
			r.mu.Unlock()
			return nil, &core.ReferenceError{Kind: core.KindTemporalGroup, ID: spec.ID, Missing: "temporalGroup " + spec.SuperGroup}
		}
		group.Depth = parent.Depth + 1
		parent.SubGroups = append(parent.SubGroups, group.ID)
	}
	r.temporal[group.ID] = group
	r.mu.Unlock()

	return group, r.emit(core.KindTemporalGroup, core.ActionCreate, group.ID, group, nil)
}

// CreateSpatialGroup registers a spatial group inside an existing temporal group.
func (r *Registry) CreateSpatialGroup(spec core.SpatialGroupSpec) (*core.SpatialGroup, error) {
	if spec.ID == "" {
		return nil, &core.ValidationError{Kind: core.KindSpatialGroup, Field: "id", Reason: "required"}
	}

	r.mu.Lock()
	if existing, ok := r.spatial[spec.ID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	if spec.SuperGroup == "" {
		r.mu.Unlock()
		return nil, &core.ValidationError{Kind: core.KindSpatialGroup, ID: spec.ID, Field: "superGroup", Reason: "required"}
	}
	parent, ok := r.temporal[spec.SuperGroup]
	if !ok {
		r.mu.Unlock()
		return nil, &core.ReferenceError{Kind: core.KindSpatialGroup, ID: spec.ID, Missing: "temporalGroup " + spec.SuperGroup}
	}

	group := &core.SpatialGroup{
		ID:          spec.ID,
		Name:        spec.Name,
		SuperGroup:  parent.ID,
		Multiselect: spec.Multiselect,
		Depth:       parent.Depth + 1,
	}
	parent.SpatialGroups = append(parent.SpatialGroups, group.ID)
	r.spatial[group.ID] = group
	r.mu.Unlock()

	return group, r.emit(core.KindSpatialGroup, core.ActionCreate, group.ID, group, nil)
}

// CreateVertex registers a vertex inside an existing spatial group.
func (r *Registry) CreateVertex(spec core.VertexSpec) (*core.Vertex, error) {
	if err := validateVertex(spec); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.vertices[spec.ID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	group, ok := r.spatial[spec.GroupID]
	if !ok {
		r.mu.Unlock()
		return nil, &core.ReferenceError{Kind: core.KindVertex, ID: spec.ID, Missing: "spatialGroup " + spec.GroupID}
	}

	v := &core.Vertex{
		ID:          spec.ID,
		Coordinates: spec.Coordinates,
		Timestamp:   spec.Timestamp,
		Path:        spec.Path,
		GroupID:     group.ID,
	}
	group.Vertices = append(group.Vertices, v.ID)
	r.vertices[v.ID] = v
	r.mu.Unlock()

	return v, r.emit(core.KindVertex, core.ActionCreate, v.ID, v, nil)
}

func validateVertex(spec core.VertexSpec) error {
	switch {
	case spec.ID == "":
		return &core.ValidationError{Kind: core.KindVertex, Field: "id", Reason: "required"}
	case spec.GroupID == "":
		return &core.ValidationError{Kind: core.KindVertex, ID: spec.ID, Field: "spatialGroup", Reason: "required"}
	case !spec.Coordinates.Valid():
		return &core.ValidationError{Kind: core.KindVertex, ID: spec.ID, Field: "coordinates", Reason: fmt.Sprintf("out of range: %v", spec.Coordinates)}
	case spec.Timestamp.IsZero():
		return &core.ValidationError{Kind: core.KindVertex, ID: spec.ID, Field: "timestamp", Reason: "required"}
	}
	return nil
}

// CreateEdge registers a directed edge between two existing vertices. When the
// reverse edge of the same type exists, the two are paired as opposites.
func (r *Registry) CreateEdge(spec core.EdgeSpec) (*core.Edge, error) {
	if spec.Type == "" {
		spec.Type = core.EdgeRoute
	}
	if spec.ID == "" && spec.From != "" && spec.To != "" {
		spec.ID = core.EdgeID(spec.From, spec.To)
	}
	switch {
	case spec.From == "" || spec.To == "":
		return nil, &core.ValidationError{Kind: core.KindEdge, ID: spec.ID, Field: "from/to", Reason: "required"}
	case spec.From == spec.To:
		return nil, &core.ValidationError{Kind: core.KindEdge, ID: spec.ID, Reason: "self-loop"}
	case !spec.Type.Valid():
		return nil, &core.ValidationError{Kind: core.KindEdge, ID: spec.ID, Field: "type", Reason: fmt.Sprintf("unknown type %q", spec.Type)}
	}

	r.mu.Lock()
	if existing, ok := r.edges[spec.ID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	from, ok := r.vertices[spec.From]
	if !ok {
		r.mu.Unlock()
		return nil, &core.ReferenceError{Kind: core.KindEdge, ID: spec.ID, Missing: "vertex " + spec.From}
	}
	if _, ok := r.vertices[spec.To]; !ok {
		r.mu.Unlock()
		return nil, &core.ReferenceError{Kind: core.KindEdge, ID: spec.ID, Missing: "vertex " + spec.To}
	}

	e := &core.Edge{ID: spec.ID, From: spec.From, To: spec.To, Type: spec.Type}
	if rev := r.findEdgeLocked(spec.To, spec.From, spec.Type); rev != nil && rev.Opposite == "" {
		rev.Opposite = e.ID
		e.Opposite = rev.ID
	}
	if !slices.Contains(from.Outgoing, e.ID) {
		from.Outgoing = append(from.Outgoing, e.ID)
	}
	r.incoming[e.To] = append(r.incoming[e.To], e.ID)
	r.edges[e.ID] = e
	r.mu.Unlock()

	return e, r.emit(core.KindEdge, core.ActionCreate, e.ID, e, nil)
}

func (r *Registry) findEdgeLocked(from, to string, typ core.EdgeType) *core.Edge {
	v, ok := r.vertices[from]
	if !ok {
		return nil
	}
	for _, id := range v.Outgoing {
		if e := r.edges[id]; e != nil && e.To == to && e.Type == typ {
			return e
		}
	}
	return nil
}

// --- Delete ---

// DeleteEdge removes an edge. The opposite edge, if any, survives with its
// Opposite reference cleared. Deleting an absent edge is a no-op.
func (r *Registry) DeleteEdge(id string) error {
	r.mu.Lock()
	e, ok := r.edges[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if from := r.vertices[e.From]; from != nil {
		from.Outgoing = removeID(from.Outgoing, id)
	}
	r.incoming[e.To] = removeID(r.incoming[e.To], id)
	if len(r.incoming[e.To]) == 0 {
		delete(r.incoming, e.To)
	}
	if opp := r.edges[e.Opposite]; opp != nil && opp.Opposite == id {
		opp.Opposite = ""
	}
	delete(r.edges, id)
	r.mu.Unlock()

	return r.emit(core.KindEdge, core.ActionDelete, id, e, nil)
}

// DeleteVertex removes a vertex after deleting every incident edge.
func (r *Registry) DeleteVertex(id string) error {
	r.mu.RLock()
	_, ok := r.vertices[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var errs []error
	for _, edgeID := range r.IncidentEdges(id) {
		errs = append(errs, r.DeleteEdge(edgeID))
	}

	r.mu.Lock()
	v, ok := r.vertices[id]
	if !ok {
		r.mu.Unlock()
		return errors.Join(errs...)
	}
	if g := r.spatial[v.GroupID]; g != nil {
		g.Vertices = removeID(g.Vertices, id)
	}
	delete(r.vertices, id)
	delete(r.incoming, id)
	r.mu.Unlock()

	errs = append(errs, r.emit(core.KindVertex, core.ActionDelete, id, v, nil))
	return errors.Join(errs...)
}

// DeleteSpatialGroup removes a spatial group and every vertex in it.
func (r *Registry) DeleteSpatialGroup(id string) error {
	r.mu.RLock()
	g, ok := r.spatial[id]
	var members []string
	if ok {
		members = slices.Clone(g.Vertices)
	}
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var errs []error
	for _, vid := range members {
		errs = append(errs, r.DeleteVertex(vid))
	}

	r.mu.Lock()
	if parent := r.temporal[g.SuperGroup]; parent != nil {
		parent.SpatialGroups = removeID(parent.SpatialGroups, id)
	}
	delete(r.spatial, id)
	r.mu.Unlock()

	errs = append(errs, r.emit(core.KindSpatialGroup, core.ActionDelete, id, g, nil))
	return errors.Join(errs...)
}

// DeleteTemporalGroup removes a temporal group, its nested temporal groups
// and all spatial groups below it, deepest first.
func (r *Registry) DeleteTemporalGroup(id string) error {
	r.mu.RLock()
	g, ok := r.temporal[id]
	var subs, spatial []string
	if ok {
		subs = slices.Clone(g.SubGroups)
		spatial = slices.Clone(g.SpatialGroups)
	}
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var errs []error
	for _, sub := range subs {
		errs = append(errs, r.DeleteTemporalGroup(sub))
	}
	for _, sg := range spatial {
		errs = append(errs, r.DeleteSpatialGroup(sg))
	}

	r.mu.Lock()
	if parent := r.temporal[g.SuperGroup]; parent != nil {
		parent.SubGroups = removeID(parent.SubGroups, id)
	}
	delete(r.temporal, id)
	r.mu.Unlock()

	errs = append(errs, r.emit(core.KindTemporalGroup, core.ActionDelete, id, g, nil))
	return errors.Join(errs...)
}

// Delete removes the entity with the given id, whatever its kind.
func (r *Registry) Delete(id string) error {
	ent, ok := r.Lookup(id)
	if !ok {
		return nil
	}
	switch ent.(type) {
	case *core.Vertex:
		return r.DeleteVertex(id)
	case *core.Edge:
		return r.DeleteEdge(id)
	case *core.SpatialGroup:
		return r.DeleteSpatialGroup(id)
	case *core.TemporalGroup:
		return r.DeleteTemporalGroup(id)
	}
	return nil
}

// Clear deletes every entity, emitting the usual cascade of events.
func (r *Registry) Clear() error {
	var errs []error
	for _, g := range r.TemporalGroups() {
		if g.SuperGroup == "" {
			errs = append(errs, r.DeleteTemporalGroup(g.ID))
		}
	}
	return errors.Join(errs...)
}

func removeID(list []string, id string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == id })
}

// --- Lookup ---

// Lookup returns the entity registered under id, checking vertices, edges,
// spatial groups and temporal groups in that order.
func (r *Registry) Lookup(id string) (core.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.vertices[id]; ok {
		return v, true
	}
	if e, ok := r.edges[id]; ok {
		return e, true
	}
	if g, ok := r.spatial[id]; ok {
		return g, true
	}
	if g, ok := r.temporal[id]; ok {
		return g, true
	}
	return nil, false
}

// Vertex returns the vertex with the given id.
func (r *Registry) Vertex(id string) (*core.Vertex, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vertices[id]
	return v, ok
}

// Edge returns the edge with the given id.
func (r *Registry) Edge(id string) (*core.Edge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.edges[id]
	return e, ok
}

// SpatialGroup returns the spatial group with the given id.
func (r *Registry) SpatialGroup(id string) (*core.SpatialGroup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.spatial[id]
	return g, ok
}

// TemporalGroup returns the temporal group with the given id.
func (r *Registry) TemporalGroup(id string) (*core.TemporalGroup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.temporal[id]
	return g, ok
}

// IncidentEdges returns the ids of edges leaving or entering the vertex,
// outgoing first.
func (r *Registry) IncidentEdges(vertexID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vertices[vertexID]
	if !ok {
		return nil
	}
	ids := slices.Clone(v.Outgoing)
	for _, id := range r.incoming[vertexID] {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Vertices returns all vertices sorted by id.
func (r *Registry) Vertices() []*core.Vertex {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.vertices, func(v *core.Vertex) string { return v.ID })
}

// Edges returns all edges sorted by id.
func (r *Registry) Edges() []*core.Edge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.edges, func(e *core.Edge) string { return e.ID })
}

// SpatialGroups returns all spatial groups sorted by id.
func (r *Registry) SpatialGroups() []*core.SpatialGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.spatial, func(g *core.SpatialGroup) string { return g.ID })
}

// TemporalGroups returns all temporal groups, parents before children.
func (r *Registry) TemporalGroups() []*core.TemporalGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := sortedValues(r.temporal, func(g *core.TemporalGroup) string { return g.ID })
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Depth < groups[j].Depth })
	return groups
}

// Count returns the number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vertices) + len(r.edges) + len(r.spatial) + len(r.temporal)
}

func sortedValues[T any](m map[string]T, key func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

// --- Group policy ---

// GroupParent returns the super group of a spatial or temporal group.
// ok is false for unknown ids and for top-level groups.
func (r *Registry) GroupParent(groupID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.spatial[groupID]; ok {
		return g.SuperGroup, g.SuperGroup != ""
	}
	if g, ok := r.temporal[groupID]; ok {
		return g.SuperGroup, g.SuperGroup != ""
	}
	return "", false
}

// VertexGroup returns the spatial group owning a vertex.
func (r *Registry) VertexGroup(vertexID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vertices[vertexID]
	if !ok {
		return "", false
	}
	return v.GroupID, true
}

// GroupMultiselect reports the multiselect setting of a spatial or temporal
// group. Unknown groups report true.
func (r *Registry) GroupMultiselect(groupID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.spatial[groupID]; ok {
		return g.Multiselect
	}
	if g, ok := r.temporal[groupID]; ok {
		return g.Multiselect
	}
	return true
}
