// Package timeline projects vertices onto a time axis, one row per spatial
// group, merging dense runs into range items at low zoom.
//
// A Timeline is driven from the event bus and is not safe for concurrent use.
package timeline

import (
	"errors"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/NiHoel/cirspecte-site/internal/eventbus"
	"github.com/NiHoel/cirspecte-site/internal/registry"
	"github.com/NiHoel/cirspecte-site/internal/settings"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Item is a timeline entry. A plain item mirrors one vertex and has no End;
// a range item spans Start to End and lists its members.
type Item struct {
	ID      string
	Group   string
	Start   time.Time
	End     time.Time
	Members []string
}

// IsRange reports whether the item stands for an aggregated run.
func (it Item) IsRange() bool {
	return len(it.Members) > 0
}

// Group is a timeline row.
type Group struct {
	ID    string
	Title string
}

// Timeline is the timeline projection adapter.
type Timeline struct {
	reg      *registry.Registry
	bus      *eventbus.Bus
	logger   *slog.Logger
	renderer Renderer
	settings *settings.Settings

	aggregator  Aggregator
	aggregateOn bool
	itemWidth   int

	items     map[string]*Item
	groups    map[string]*Group
	display   []Item
	selection []string

	start, end time.Time
	width      int
	msPerPixel float64

	last struct {
		start, end time.Time
		width      int
		valid      bool
	}

	unsubscribe []func()
}

// Option configures a Timeline.
type Option func(*Timeline)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Timeline) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithRenderer sets the renderer. The default draws nothing.
func WithRenderer(r Renderer) Option {
	return func(t *Timeline) {
		if r != nil {
			t.renderer = r
		}
	}
}

// WithAggregator replaces the aggregation routine.
func WithAggregator(a Aggregator) Option {
	return func(t *Timeline) {
		if a != nil {
			t.aggregator = a
		}
	}
}

// WithItemWidth sets the rendered item width in pixels.
func WithItemWidth(px int) Option {
	return func(t *Timeline) {
		if px > 0 {
			t.itemWidth = px
		}
	}
}

// WithSettings binds the timeline to the window, width and aggregation
// settings, and makes range clicks zoom through them.
func WithSettings(s *settings.Settings) Option {
	return func(t *Timeline) {
		t.settings = s
	}
}

// New creates a timeline adapter subscribed to model events on the
// registry's bus.
func New(reg *registry.Registry, opts ...Option) *Timeline {
	t := &Timeline{
		reg:         reg,
		bus:         reg.Bus(),
		logger:      slog.New(slog.DiscardHandler),
		renderer:    noopRenderer{},
		aggregator:  Aggregate,
		aggregateOn: true,
		itemWidth:   24,
		width:       1200,
		items:       make(map[string]*Item),
		groups:      make(map[string]*Group),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.settings != nil {
		t.bindSettings()
	}
	t.subscribe()
	return t
}

func (t *Timeline) bindSettings() {
	s := t.settings
	t.start, t.end = s.Start.Get(), s.End.Get()
	t.width = s.Width.Get()
	t.aggregateOn = s.AggregateItems.Get()
	t.unsubscribe = append(t.unsubscribe,
		s.Start.Subscribe(func(v time.Time) { t.SetWindow(v, t.end) }),
		s.End.Subscribe(func(v time.Time) { t.SetWindow(t.start, v) }),
		s.Width.Subscribe(t.SetWidth),
		s.AggregateItems.Subscribe(t.SetAggregate),
	)
}

func (t *Timeline) subscribe() {
	on := func(kind core.EntityKind, action core.Action, h eventbus.Handler) {
		t.unsubscribe = append(t.unsubscribe, t.bus.Subscribe(kind, action, h))
	}
	on(core.KindSpatialGroup, core.ActionCreate, func(ev core.Event) error { return t.createGroup(ev.ID) })
	on(core.KindSpatialGroup, core.ActionDelete, func(ev core.Event) error { return t.deleteGroup(ev.ID) })
	on(core.KindVertex, core.ActionCreate, func(ev core.Event) error { return t.createItem(ev.ID) })
	on(core.KindVertex, core.ActionUpdate, func(ev core.Event) error { return t.UpdateItem(ev.ID) })
	on(core.KindVertex, core.ActionDelete, func(ev core.Event) error { return t.deleteItem(ev.ID) })
}

// Close unsubscribes the adapter from the bus and settings.
func (t *Timeline) Close() {
	for _, fn := range t.unsubscribe {
		fn()
	}
	t.unsubscribe = nil
}

func (t *Timeline) createGroup(id string) error {
	if _, ok := t.groups[id]; ok {
		return nil
	}
	g, ok := t.reg.SpatialGroup(id)
	if !ok {
		return &core.ReferenceError{Kind: core.KindGroup, ID: id, Missing: "spatialGroup " + id}
	}
	row := &Group{ID: id, Title: g.Name}
	t.groups[id] = row
	return t.bus.Publish(core.KindGroup, core.ActionCreate, id, row)
}

func (t *Timeline) deleteGroup(id string) error {
	row, ok := t.groups[id]
	if !ok {
		return nil
	}
	var errs []error
	for _, it := range t.itemsIn(id) {
		errs = append(errs, t.deleteItem(it))
	}
	delete(t.groups, id)
	errs = append(errs, t.bus.Publish(core.KindGroup, core.ActionDelete, id, row))
	return errors.Join(errs...)
}

func (t *Timeline) itemsIn(group string) []string {
	var ids []string
	for id, it := range t.items {
		if it.Group == group {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (t *Timeline) createItem(vertexID string) error {
	if _, ok := t.items[vertexID]; ok {
		return nil
	}
	it, err := t.itemFor(vertexID)
	if err != nil {
		return err
	}
	t.items[vertexID] = it
	t.Refresh(true)
	return t.bus.Publish(core.KindItem, core.ActionCreate, vertexID, it)
}

func (t *Timeline) itemFor(vertexID string) (*Item, error) {
	v, ok := t.reg.Vertex(vertexID)
	if !ok {
		return nil, &core.ReferenceError{Kind: core.KindItem, ID: vertexID, Missing: "vertex " + vertexID}
	}
	if _, ok := t.groups[v.GroupID]; !ok {
		return nil, &core.ReferenceError{Kind: core.KindItem, ID: vertexID, Missing: "group " + v.GroupID}
	}
	return &Item{ID: v.ID, Group: v.GroupID, Start: v.Timestamp}, nil
}

func (t *Timeline) deleteItem(vertexID string) error {
	it, ok := t.items[vertexID]
	if !ok {
		return nil
	}
	delete(t.items, vertexID)
	t.Refresh(true)
	return t.bus.Publish(core.KindItem, core.ActionDelete, vertexID, it)
}

// UpdateItem re-reads a vertex. When its spatial group changed, the whole
// item collection is rebuilt and a forced refresh follows, since the move
// can change aggregation in two rows.
func (t *Timeline) UpdateItem(vertexID string) error {
	it, ok := t.items[vertexID]
	if !ok {
		return nil
	}
	v, ok := t.reg.Vertex(vertexID)
	if !ok {
		return &core.ReferenceError{Kind: core.KindItem, ID: vertexID, Missing: "vertex " + vertexID}
	}

	switch {
	case v.GroupID != it.Group:
		t.logger.Debug("item changed row", "vertex", vertexID, "from", it.Group, "to", v.GroupID)
		if err := t.rebuildItems(); err != nil {
			return err
		}
		t.Refresh(true)
	case !v.Timestamp.Equal(it.Start):
		it.Start = v.Timestamp
		t.Refresh(true)
	}
	return nil
}

func (t *Timeline) rebuildItems() error {
	items := make(map[string]*Item, len(t.items))
	for _, v := range t.reg.Vertices() {
		it, err := t.itemFor(v.ID)
		if err != nil {
			return err
		}
		items[v.ID] = it
	}
	t.items = items
	return nil
}

// Rebuild drops all rows and items and recreates them from the registry.
func (t *Timeline) Rebuild() error {
	t.groups = make(map[string]*Group)
	for _, g := range t.reg.SpatialGroups() {
		t.groups[g.ID] = &Group{ID: g.ID, Title: g.Name}
	}
	if err := t.rebuildItems(); err != nil {
		return err
	}
	t.Refresh(true)
	return nil
}

// Items returns the per-vertex items sorted by row and start.
func (t *Timeline) Items() []Item {
	out := make([]Item, 0, len(t.items))
	for _, it := range t.items {
		out = append(out, *it)
	}
	slices.SortFunc(out, compareItems)
	return out
}

// Groups returns the rows sorted by id.
func (t *Timeline) Groups() []Group {
	out := make([]Group, 0, len(t.groups))
	for _, g := range t.groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b Group) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Display returns what the last refresh put on screen.
func (t *Timeline) Display() []Item {
	return slices.Clone(t.display)
}

// Click handles a click on a displayed item. A range zooms the window to its
// span; a plain item publishes Item/Click.
func (t *Timeline) Click(itemID string) error {
	for _, it := range t.display {
		if it.ID != itemID {
			continue
		}
		if !it.IsRange() {
			return t.bus.Publish(core.KindItem, core.ActionClick, it.ID, it)
		}
		start, end := it.Start, it.End
		if !end.After(start) {
			start, end = start.Add(-time.Second), end.Add(time.Second)
		}
		if t.settings != nil {
			t.settings.SetWindow(start, end)
		} else {
			t.SetWindow(start, end)
		}
		return nil
	}
	return &core.ReferenceError{Kind: core.KindItem, ID: itemID}
}

// SetSelection stores the selected ids and pushes them to the renderer.
func (t *Timeline) SetSelection(ids []string) {
	t.selection = slices.Clone(ids)
	t.renderer.SetSelection(slices.Clone(t.selection))
}

// Selection returns the ids last pushed by SetSelection.
func (t *Timeline) Selection() []string {
	return slices.Clone(t.selection)
}
