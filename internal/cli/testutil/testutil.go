// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/NiHoel/cirspecte-site/internal/cli/output"
)

// RootTour is the root document written by SetupTestProject. It pulls in
// the park document through tours.
const RootTour = `temporalGroups:
  - id: "2019"
    title: summer 2019
    subGroups:
      - type: spatial
        id: square
        name: Market square
        vertices:
          - id: v1
            coordinates: [49.0094, 8.4044]
            timestamp: 2019-05-01T10:00:00Z
            outgoingEdges:
              - to: v2
          - id: v2
            coordinates: [49.0095, 8.4046]
            timestamp: 2019-05-01T10:00:01Z
            outgoingEdges:
              - to: v1
          - id: v3
            coordinates: [49.0096, 8.4047]
            timestamp: 2019-05-01T10:00:02Z
tours:
  - park/tour.json
`

// ParkTour is the child document written by SetupTestProject.
const ParkTour = `{
  "spatialGroups": [
    {"id": "park", "name": "Park", "superGroup": "2019", "vertices": [
      {"id": "p1", "coordinates": [49.01, 8.41], "timestamp": "2019-05-01T11:00:00Z",
       "outgoingEdges": [{"to": "v3", "type": "landmark"}]}
    ]}
  ]
}`

// SetupTestProject creates a temporary project with a config file and a
// two-document tour. It returns the project directory and the root tour path.
func SetupTestProject(t *testing.T) (string, string) {
	t.Helper()

	tmpDir := t.TempDir()

	files := map[string]string{
		"cirspecte.yaml":       "state_path: state/state.db\n",
		"tours/tour.yaml":      RootTour,
		"tours/park/tour.json": ParkTour,
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir, filepath.Join(tmpDir, "tours", "tour.yaml")
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode without colors.
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, false)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
