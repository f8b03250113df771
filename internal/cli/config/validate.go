package config

import (
	"fmt"
	"slices"
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OutputFormat != "" && !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (want one of auto, text, markdown, json)", c.OutputFormat)
	}
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	viewer := c.Viewer()
	return viewer.Validate()
}
