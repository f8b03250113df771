// Package config provides shared configuration types for cirspecte.
// This package is decoupled from CLI concerns so the engine and its
// projections can be configured without going through cobra.
package config

import (
	"fmt"
)

// TimelineConfig holds timeline projection settings.
type TimelineConfig struct {
	// WidthPx is the rendered width of the timeline in pixels.
	WidthPx int `koanf:"width_px"`
	// ItemWidthPx is the rendered width of one item; it drives both the
	// lookahead margin and the aggregation threshold.
	ItemWidthPx    int  `koanf:"item_width_px"`
	AggregateItems bool `koanf:"aggregate_items"`
}

// MapConfig holds map projection settings.
type MapConfig struct {
	Zoom float64 `koanf:"zoom"`
}

// SelectionConfig holds selection policy settings.
type SelectionConfig struct {
	// MultiselectDefault is used for groups created without an explicit
	// multiselect flag.
	MultiselectDefault bool `koanf:"multiselect_default"`
}

// ViewerConfig is the subset of the configuration consumed by the engine.
type ViewerConfig struct {
	Timeline  TimelineConfig  `koanf:"timeline"`
	Map       MapConfig       `koanf:"map"`
	Selection SelectionConfig `koanf:"selection"`
}

// Validate checks that the viewer configuration can drive the projections.
func (c *ViewerConfig) Validate() error {
	if c.Timeline.WidthPx <= 0 {
		return fmt.Errorf("timeline.width_px must be positive, got %d", c.Timeline.WidthPx)
	}
	if c.Timeline.ItemWidthPx <= 0 {
		return fmt.Errorf("timeline.item_width_px must be positive, got %d", c.Timeline.ItemWidthPx)
	}
	if c.Map.Zoom < 0 {
		return fmt.Errorf("map.zoom must not be negative, got %g", c.Map.Zoom)
	}
	return nil
}
