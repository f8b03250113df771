// Package config provides configuration management for the cirspecte CLI.
//
// It extends the shared viewer configuration from internal/config with
// CLI-specific fields: where the state database lives, how output is
// rendered and how chatty logging is.
package config

import (
	sharedcfg "github.com/NiHoel/cirspecte-site/internal/config"
)

// TimelineConfig is an alias for the shared timeline configuration.
type TimelineConfig = sharedcfg.TimelineConfig

// MapConfig is an alias for the shared map configuration.
type MapConfig = sharedcfg.MapConfig

// SelectionConfig is an alias for the shared selection configuration.
type SelectionConfig = sharedcfg.SelectionConfig

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string          `koanf:"state_path"`
	ReadOnly     bool            `koanf:"read_only"`
	Verbose      bool            `koanf:"verbose"`
	OutputFormat string          `koanf:"output"`
	Timeline     TimelineConfig  `koanf:"timeline"`
	Map          MapConfig       `koanf:"map"`
	Selection    SelectionConfig `koanf:"selection"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Viewer returns the part of the configuration the engine consumes.
func (c *Config) Viewer() sharedcfg.ViewerConfig {
	return sharedcfg.ViewerConfig{
		Timeline:  c.Timeline,
		Map:       c.Map,
		Selection: c.Selection,
	}
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultStateFile = sharedcfg.DefaultStatePath
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Default returns a Config with every default applied.
func Default() *Config {
	viewer := sharedcfg.Default()
	return &Config{
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Timeline:     viewer.Timeline,
		Map:          viewer.Map,
		Selection:    viewer.Selection,
	}
}
