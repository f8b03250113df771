// Package mapview mirrors the tour graph as a tree of map containers.
//
// Temporal groups become control groups, spatial groups layer groups and
// vertices points. Edges are drawn as lines in one shared container that is
// always attached to the root. Parents are derived from the registry on
// every change, never cached across mutations.
//
// A Map is driven from the event bus and is not safe for concurrent use.
package mapview

import (
	"errors"
	"log/slog"
	"slices"
	"sort"

	"github.com/NiHoel/cirspecte-site/internal/eventbus"
	"github.com/NiHoel/cirspecte-site/internal/registry"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Container ids that exist independently of the model.
const (
	RootID  = "map:root"
	LinesID = "map:lines"
)

// Point is the map visual of a vertex.
type Point struct {
	VertexID    string
	Coordinates core.LatLon
	// Parent is the id of the layer group the point is attached to.
	Parent   string
	Selected bool
}

// Line is the map visual of an edge. Both edges of a bidirectional pair
// share one line.
type Line struct {
	ID    string
	Edges []string
	From  string
	To    string
	Type  core.EdgeType
	Path  [2]core.LatLon
	// Attached reports whether the line hangs in the shared line container.
	Attached bool
}

// Container is a layer group, a control group or the root.
type Container struct {
	ID     string
	Kind   core.EntityKind
	Title  string
	Parent string
	Hidden bool
	// Points is used by layer groups, Layers and Controls by control groups
	// and the root.
	Points   []string
	Layers   []string
	Controls []string
}

// Map is the map projection adapter.
type Map struct {
	reg      *registry.Registry
	bus      *eventbus.Bus
	logger   *slog.Logger
	renderer Renderer

	root     *Container
	points   map[string]*Point
	lines    map[string]*Line
	lineOf   map[string]string
	layers   map[string]*Container
	controls map[string]*Container

	// writing is set while the adapter itself moves a point, so the
	// renderer's move notification is not mistaken for a user drag.
	writing bool

	unsubscribe []func()
}

// Option configures a Map.
type Option func(*Map)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Map) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRenderer sets the renderer. The default draws nothing.
func WithRenderer(r Renderer) Option {
	return func(m *Map) {
		if r != nil {
			m.renderer = r
		}
	}
}

// New creates a map adapter and subscribes it to model events on the
// registry's bus. Entities registered before New are picked up by Rebuild.
func New(reg *registry.Registry, opts ...Option) *Map {
	m := &Map{
		reg:      reg,
		bus:      reg.Bus(),
		logger:   slog.New(slog.DiscardHandler),
		renderer: noopRenderer{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.reset()
	m.subscribe()
	return m
}

func (m *Map) reset() {
	m.root = &Container{ID: RootID, Kind: core.KindControlGroup, Controls: nil}
	m.points = make(map[string]*Point)
	m.lines = make(map[string]*Line)
	m.lineOf = make(map[string]string)
	m.layers = make(map[string]*Container)
	m.controls = make(map[string]*Container)
}

func (m *Map) subscribe() {
	on := func(kind core.EntityKind, action core.Action, h eventbus.Handler) {
		m.unsubscribe = append(m.unsubscribe, m.bus.Subscribe(kind, action, h))
	}

	on(core.KindTemporalGroup, core.ActionCreate, func(ev core.Event) error { return m.createControl(ev.ID) })
	on(core.KindTemporalGroup, core.ActionUpdate, func(ev core.Event) error { return m.UpdateParent(core.KindControlGroup, ev.ID) })
	on(core.KindTemporalGroup, core.ActionDelete, func(ev core.Event) error { return m.deleteControl(ev.ID) })

	on(core.KindSpatialGroup, core.ActionCreate, func(ev core.Event) error { return m.createLayer(ev.ID) })
	on(core.KindSpatialGroup, core.ActionUpdate, func(ev core.Event) error { return m.UpdateParent(core.KindLayerGroup, ev.ID) })
	on(core.KindSpatialGroup, core.ActionDelete, func(ev core.Event) error { return m.deleteLayer(ev.ID) })

	on(core.KindVertex, core.ActionCreate, func(ev core.Event) error { return m.createPoint(ev.ID) })
	on(core.KindVertex, core.ActionUpdate, func(ev core.Event) error {
		if _, ok := m.points[ev.ID]; !ok {
			return nil
		}
		if err := m.UpdateParent(core.KindPoint, ev.ID); err != nil {
			return err
		}
		return m.UpdatePointCoordinates(ev.ID)
	})
	on(core.KindVertex, core.ActionDelete, func(ev core.Event) error { return m.deletePoint(ev.ID) })

	on(core.KindEdge, core.ActionCreate, func(ev core.Event) error { return m.createLine(ev.ID) })
	on(core.KindEdge, core.ActionDelete, func(ev core.Event) error { return m.deleteEdgeLine(ev.ID) })
}

// Close unsubscribes the adapter from the bus.
func (m *Map) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

// Rebuild drops every visual and reconstructs the tree from the registry.
func (m *Map) Rebuild() error {
	var errs []error
	for _, id := range sortedKeys(m.controls) {
		if m.root != nil && slices.Contains(m.root.Controls, id) {
			errs = append(errs, m.deleteControl(id))
		}
	}
	for _, id := range sortedKeys(m.layers) {
		errs = append(errs, m.deleteLayer(id))
	}
	for _, id := range sortedKeys(m.points) {
		errs = append(errs, m.deletePoint(id))
	}
	for _, id := range sortedKeys(m.lines) {
		errs = append(errs, m.removeLine(id))
	}
	m.reset()

	for _, g := range m.reg.TemporalGroups() {
		errs = append(errs, m.createControl(g.ID))
	}
	for _, g := range m.reg.SpatialGroups() {
		errs = append(errs, m.createLayer(g.ID))
	}
	for _, v := range m.reg.Vertices() {
		errs = append(errs, m.createPoint(v.ID))
	}
	for _, e := range m.reg.Edges() {
		errs = append(errs, m.createLine(e.ID))
	}
	m.renderer.RefreshTree()
	return errors.Join(errs...)
}

func (m *Map) emit(kind core.EntityKind, action core.Action, id string, entity any, value any) error {
	return m.bus.Emit(core.Event{Kind: kind, Action: action, ID: id, Entity: entity, Value: value})
}

// --- Accessors ---

// Point returns the point of a vertex.
func (m *Map) Point(vertexID string) (*Point, bool) {
	p, ok := m.points[vertexID]
	return p, ok
}

// Line returns a line by its id.
func (m *Map) Line(lineID string) (*Line, bool) {
	l, ok := m.lines[lineID]
	return l, ok
}

// LineOf returns the id of the line drawing an edge.
func (m *Map) LineOf(edgeID string) (string, bool) {
	id, ok := m.lineOf[edgeID]
	return id, ok
}

// Lines returns all lines sorted by id.
func (m *Map) Lines() []*Line {
	out := make([]*Line, 0, len(m.lines))
	for _, id := range sortedKeys(m.lines) {
		out = append(out, m.lines[id])
	}
	return out
}

// LayerGroup returns the layer group of a spatial group.
func (m *Map) LayerGroup(groupID string) (*Container, bool) {
	c, ok := m.layers[groupID]
	return c, ok
}

// ControlGroup returns the control group of a temporal group.
func (m *Map) ControlGroup(groupID string) (*Container, bool) {
	c, ok := m.controls[groupID]
	return c, ok
}

// Root returns the root container.
func (m *Map) Root() *Container {
	return m.root
}

// SetSelection marks the points of the given vertex ids as selected and
// pushes the set to the renderer.
func (m *Map) SetSelection(ids []string) {
	for _, p := range m.points {
		p.Selected = slices.Contains(ids, p.VertexID)
	}
	m.renderer.SetSelection(slices.Clone(ids))
}

// Click reports a click on the point of a vertex.
func (m *Map) Click(vertexID string) error {
	p, ok := m.points[vertexID]
	if !ok {
		return &core.ReferenceError{Kind: core.KindPoint, ID: vertexID}
	}
	return m.emit(core.KindPoint, core.ActionClick, vertexID, p, nil)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
