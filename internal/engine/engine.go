// Package engine wires the tour graph, its projections and the selection
// together. It is the composition root used by the CLI and by embedders.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/NiHoel/cirspecte-site/internal/config"
	"github.com/NiHoel/cirspecte-site/internal/eventbus"
	"github.com/NiHoel/cirspecte-site/internal/loader"
	"github.com/NiHoel/cirspecte-site/internal/mapview"
	"github.com/NiHoel/cirspecte-site/internal/registry"
	"github.com/NiHoel/cirspecte-site/internal/selection"
	"github.com/NiHoel/cirspecte-site/internal/settings"
	"github.com/NiHoel/cirspecte-site/internal/timeline"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Engine owns one tour graph and everything that observes it.
type Engine struct {
	logger *slog.Logger

	bus       *eventbus.Bus
	registry  *registry.Registry
	settings  *settings.Settings
	mapView   *mapview.Map
	timeline  *timeline.Timeline
	selection *selection.Coordinator
	loader    *loader.Loader

	// Snapshot store (lazy initialized)
	store     core.Store
	storeMu   sync.Mutex
	statePath string
	readOnly  bool

	mapRenderer      mapview.Renderer
	timelineRenderer timeline.Renderer

	unsubscribe []func()
}

// Config holds engine configuration.
type Config struct {
	// StatePath is the path to the SQLite state database. Empty means an
	// in-memory database that is dropped on Close.
	StatePath string
	// ReadOnly rejects Save with *core.UnsupportedOperationError.
	ReadOnly bool
	// Viewer configures the projections. Zero sizes fall back to defaults.
	Viewer config.ViewerConfig
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Option customizes an Engine beyond Config.
type Option func(*Engine)

// WithMapRenderer sets the renderer the map projection draws through.
func WithMapRenderer(r mapview.Renderer) Option {
	return func(e *Engine) { e.mapRenderer = r }
}

// WithTimelineRenderer sets the renderer the timeline projection draws through.
func WithTimelineRenderer(r timeline.Renderer) Option {
	return func(e *Engine) { e.timelineRenderer = r }
}

// WithStore replaces the SQLite store. The engine takes ownership and
// closes it on Close.
func WithStore(s core.Store) Option {
	return func(e *Engine) { e.store = s }
}

// New creates an engine with an empty graph. The state store is only opened
// when Save or Restore is called.
func New(cfg Config, opts ...Option) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	viewer := cfg.Viewer
	config.ApplyDefaults(&viewer)
	if err := viewer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viewer config: %w", err)
	}

	e := &Engine{
		logger:    logger,
		statePath: cfg.StatePath,
		readOnly:  cfg.ReadOnly,
	}
	for _, opt := range opts {
		opt(e)
	}

	logger.Debug("initializing engine", "state_path", cfg.StatePath, "read_only", cfg.ReadOnly)

	e.bus = eventbus.New()
	e.registry = registry.New(e.bus, registry.WithLogger(logger))
	e.settings = settings.New(viewer)
	e.mapView = mapview.New(e.registry,
		mapview.WithLogger(logger.With("component", "map")),
		mapview.WithRenderer(e.mapRenderer),
	)
	e.timeline = timeline.New(e.registry,
		timeline.WithLogger(logger.With("component", "timeline")),
		timeline.WithRenderer(e.timelineRenderer),
		timeline.WithItemWidth(viewer.Timeline.ItemWidthPx),
		timeline.WithSettings(e.settings),
	)
	e.selection = selection.New(e.bus, e.registry,
		selection.WithLogger(logger.With("component", "selection")),
		selection.WithSinks(e.mapView, e.timeline),
		selection.WithSettings(e.settings),
	)
	e.loader = loader.New(e.registry,
		loader.WithLogger(logger.With("component", "loader")),
		loader.WithMultiselectDefault(viewer.Selection.MultiselectDefault),
	)
	if e.store != nil && e.readOnly {
		e.store = wrapReadOnly(e.store)
	}

	e.wire()
	return e, nil
}

// Close detaches every component and closes the state store if it was opened.
func (e *Engine) Close() error {
	for _, fn := range e.unsubscribe {
		fn()
	}
	e.unsubscribe = nil
	e.selection.Close()
	e.timeline.Close()
	e.mapView.Close()

	e.storeMu.Lock()
	defer e.storeMu.Unlock()
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// Bus returns the event bus every component publishes on.
func (e *Engine) Bus() *eventbus.Bus { return e.bus }

// Registry returns the tour graph.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Settings returns the observable viewer settings.
func (e *Engine) Settings() *settings.Settings { return e.settings }

// Map returns the map projection.
func (e *Engine) Map() *mapview.Map { return e.mapView }

// Timeline returns the timeline projection.
func (e *Engine) Timeline() *timeline.Timeline { return e.timeline }

// Selection returns the selection coordinator.
func (e *Engine) Selection() *selection.Coordinator { return e.selection }

// Loader returns the tour document loader.
func (e *Engine) Loader() *loader.Loader { return e.loader }
