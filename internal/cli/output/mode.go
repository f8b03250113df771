// Package output renders command results for terminals, scripts and agents.
//
// The same command can print styled text on a TTY, Markdown when piped and
// JSON on request. Auto mode picks text or Markdown from the writer.
package output

// OutputMode selects how results are rendered.
type OutputMode string //nolint:revive // output.OutputMode reads fine at call sites

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode converts a config value to an OutputMode. Unknown values are auto.
func Mode(s string) OutputMode {
	switch OutputMode(s) {
	case ModeText, ModeMarkdown, ModeJSON:
		return OutputMode(s)
	}
	return ModeAuto
}
