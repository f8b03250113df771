package config

// Default configuration values.
const (
	DefaultStatePath       = ".cirspecte/state.db"
	DefaultTimelineWidthPx = 1200
	DefaultItemWidthPx     = 24
	DefaultMapZoom         = 15
)

// Default returns a ViewerConfig with every default applied.
func Default() ViewerConfig {
	c := ViewerConfig{Timeline: TimelineConfig{AggregateItems: true}}
	ApplyDefaults(&c)
	return c
}

// ApplyDefaults fills zero values of a ViewerConfig.
func ApplyDefaults(c *ViewerConfig) {
	if c == nil {
		return
	}
	if c.Timeline.WidthPx == 0 {
		c.Timeline.WidthPx = DefaultTimelineWidthPx
	}
	if c.Timeline.ItemWidthPx == 0 {
		c.Timeline.ItemWidthPx = DefaultItemWidthPx
	}
	if c.Map.Zoom == 0 {
		c.Map.Zoom = DefaultMapZoom
	}
}
