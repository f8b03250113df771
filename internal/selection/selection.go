// Package selection tracks which vertices are selected across all viewers.
//
// Within a group that is not multiselect, selecting one vertex deselects the
// other selected vertices of that group first. Top-level groups, which have
// no super group, always allow multiselect.
package selection

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/NiHoel/cirspecte-site/internal/eventbus"
	"github.com/NiHoel/cirspecte-site/internal/settings"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Sink renders a selection. Both projections implement it.
type Sink interface {
	SetSelection(ids []string)
}

// GroupResolver answers the group questions the selection policy needs.
// *registry.Registry implements it.
type GroupResolver interface {
	VertexGroup(vertexID string) (string, bool)
	GroupParent(groupID string) (string, bool)
	GroupMultiselect(groupID string) bool
}

// Coordinator owns the selection set. SELECT and DESELECT events are
// published with kind core.KindVertex, one per changed id.
type Coordinator struct {
	bus      *eventbus.Bus
	groups   GroupResolver
	logger   *slog.Logger
	settings *settings.Settings
	sinks    []Sink

	// order keeps selection order. Group membership is looked up on demand
	// since vertices may move between groups while selected.
	order    []string
	selected map[string]struct{}

	unsubscribe []func()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSinks adds selection sinks.
func WithSinks(sinks ...Sink) Option {
	return func(c *Coordinator) {
		c.sinks = append(c.sinks, sinks...)
	}
}

// WithSettings binds the coordinator to the externally driven selection:
// changes to settings.Selection are synced in, and every local change is
// written back.
func WithSettings(s *settings.Settings) Option {
	return func(c *Coordinator) {
		c.settings = s
	}
}

// New creates a coordinator. Deleted vertices leave the selection.
func New(bus *eventbus.Bus, groups GroupResolver, opts ...Option) *Coordinator {
	c := &Coordinator{
		bus:      bus,
		groups:   groups,
		logger:   slog.New(slog.DiscardHandler),
		selected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.unsubscribe = append(c.unsubscribe, bus.Subscribe(core.KindVertex, core.ActionDelete, func(ev core.Event) error {
		return c.Deselect(ev.ID)
	}))
	if c.settings != nil {
		c.unsubscribe = append(c.unsubscribe, c.settings.Selection.Subscribe(func(ids []string) {
			if err := c.Sync(ids); err != nil {
				c.logger.Error("selection sync failed", "error", err)
			}
		}))
	}
	return c
}

// Close detaches the coordinator from the bus and settings.
func (c *Coordinator) Close() {
	for _, fn := range c.unsubscribe {
		fn()
	}
	c.unsubscribe = nil
}

// AddSink registers another sink and pushes the current selection to it.
func (c *Coordinator) AddSink(s Sink) {
	c.sinks = append(c.sinks, s)
	s.SetSelection(c.Selected())
}

// Selected returns the selected ids in selection order.
func (c *Coordinator) Selected() []string {
	return slices.Clone(c.order)
}

// IsSelected reports whether id is selected.
func (c *Coordinator) IsSelected(id string) bool {
	_, ok := c.selected[id]
	return ok
}

// Toggle flips the selection state of a vertex.
func (c *Coordinator) Toggle(id string) error {
	if c.IsSelected(id) {
		return c.Deselect(id)
	}
	return c.Select(id)
}

// SetSelected selects or deselects a vertex explicitly.
func (c *Coordinator) SetSelected(id string, selected bool) error {
	if selected {
		return c.Select(id)
	}
	return c.Deselect(id)
}

// Select selects a vertex, applying the exclusivity policy of its group.
// Selecting an already selected vertex does nothing.
func (c *Coordinator) Select(id string) error {
	if c.IsSelected(id) {
		return nil
	}
	group, ok := c.groups.VertexGroup(id)
	if !ok {
		return &core.ReferenceError{Kind: core.KindVertex, ID: id}
	}

	var errs []error
	if !c.multiselect(group) {
		for _, other := range slices.Clone(c.order) {
			if g, ok := c.groups.VertexGroup(other); ok && g == group {
				errs = append(errs, c.remove(other))
			}
		}
	}
	errs = append(errs, c.add(id))
	c.push()
	return errors.Join(errs...)
}

// Deselect removes a vertex from the selection. Deselecting an unselected id
// is a no-op and emits nothing.
func (c *Coordinator) Deselect(id string) error {
	if !c.IsSelected(id) {
		return nil
	}
	err := c.remove(id)
	c.push()
	return err
}

// Clear deselects everything.
func (c *Coordinator) Clear() error {
	if len(c.order) == 0 {
		return nil
	}
	var errs []error
	for _, id := range slices.Clone(c.order) {
		errs = append(errs, c.remove(id))
	}
	c.push()
	return errors.Join(errs...)
}

// Sync makes ids the selection. Removed ids are deselected first, then added
// ids are selected, each with its own event; the group policy is not applied
// since the source is authoritative. Ids of unknown vertices are skipped.
func (c *Coordinator) Sync(ids []string) error {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var errs []error
	changed := false
	for _, id := range slices.Clone(c.order) {
		if !want[id] {
			errs = append(errs, c.remove(id))
			changed = true
		}
	}
	for _, id := range ids {
		if c.IsSelected(id) {
			continue
		}
		if _, ok := c.groups.VertexGroup(id); !ok {
			c.logger.Warn("ignoring unknown id in selection", "id", id)
			continue
		}
		errs = append(errs, c.add(id))
		changed = true
	}
	if changed {
		c.push()
	}
	return errors.Join(errs...)
}

func (c *Coordinator) multiselect(group string) bool {
	if _, ok := c.groups.GroupParent(group); !ok {
		return true
	}
	return c.groups.GroupMultiselect(group)
}

func (c *Coordinator) add(id string) error {
	c.order = append(c.order, id)
	c.selected[id] = struct{}{}
	return c.bus.Publish(core.KindVertex, core.ActionSelect, id, nil)
}

func (c *Coordinator) remove(id string) error {
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	delete(c.selected, id)
	return c.bus.Publish(core.KindVertex, core.ActionDeselect, id, nil)
}

// push hands the selection to every sink and writes it back to settings.
func (c *Coordinator) push() {
	ids := c.Selected()
	for _, s := range c.sinks {
		s.SetSelection(slices.Clone(ids))
	}
	if c.settings != nil {
		c.settings.Selection.Set(ids)
	}
}
