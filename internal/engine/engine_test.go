package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiHoel/cirspecte-site/internal/config"
	"github.com/NiHoel/cirspecte-site/internal/testutil"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

const testTour = `
temporalGroups:
  - id: "2019"
    title: Summer 2019
    subGroups:
      - id: may
        title: May
        multiselect: false
        subGroups:
          - type: spatial
            id: square
            name: Market square
            multiselect: false
            vertices:
              - id: v1
                coordinates: [49.0094, 8.4044]
                timestamp: 2019-05-01T10:00:00Z
                outgoingEdges:
                  - to: v2
              - id: v2
                coordinates: [49.0095, 8.4046]
                timestamp: 2019-05-01T10:01:00Z
                outgoingEdges:
                  - to: v1
`

func writeTour(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tour.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testTour), 0o600))
	return path
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = testutil.NewTestLogger(t)
	}
	if cfg.Viewer == (config.ViewerConfig{}) {
		cfg.Viewer = config.Default()
	}
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func loadedEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e := newTestEngine(t, cfg, opts...)
	res, err := e.LoadTour(context.Background(), writeTour(t))
	require.NoError(t, err)
	require.True(t, res.Succeeded)
	return e
}

func TestNew_InvalidViewerConfig(t *testing.T) {
	_, err := New(Config{Viewer: config.ViewerConfig{Map: config.MapConfig{Zoom: -1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "map.zoom")
}

func TestLoadTour_ProjectsAndFitsWindow(t *testing.T) {
	e := loadedEngine(t, Config{})

	assert.Equal(t, 7, e.Registry().Count())

	_, ok := e.Map().Point("v1")
	assert.True(t, ok)
	lines := e.Map().Lines()
	require.Len(t, lines, 1, "the bidirectional pair shares one line")

	start, end := e.Timeline().Window()
	assert.True(t, start.Equal(time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2019, 5, 1, 10, 1, 0, 0, time.UTC)))
	assert.Len(t, e.Timeline().Display(), 2)
}

func TestLoadTour_MissingFile(t *testing.T) {
	e := newTestEngine(t, Config{})
	_, err := e.LoadTour(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, 0, e.Registry().Count())
}

func TestClickTogglesSelectionEverywhere(t *testing.T) {
	e := loadedEngine(t, Config{})

	require.NoError(t, e.Map().Click("v1"))
	assert.Equal(t, []string{"v1"}, e.Selection().Selected())
	assert.Equal(t, []string{"v1"}, e.Timeline().Selection())
	assert.Equal(t, []string{"v1"}, e.Settings().Selection.Get())
	p, _ := e.Map().Point("v1")
	assert.True(t, p.Selected)

	// square is exclusive, so picking v2 on the timeline replaces v1.
	require.NoError(t, e.Timeline().Click("v2"))
	assert.Equal(t, []string{"v2"}, e.Selection().Selected())
	p, _ = e.Map().Point("v1")
	assert.False(t, p.Selected)

	require.NoError(t, e.Map().Click("v2"))
	assert.Empty(t, e.Selection().Selected())
	assert.Empty(t, e.Settings().Selection.Get())
}

func TestExternalSelectionSyncs(t *testing.T) {
	e := loadedEngine(t, Config{})

	e.Settings().Selection.Set([]string{"v2"})
	assert.Equal(t, []string{"v2"}, e.Selection().Selected())
	p, _ := e.Map().Point("v2")
	assert.True(t, p.Selected)
}

func TestDragWritesModel(t *testing.T) {
	e := loadedEngine(t, Config{})

	moved := core.LatLon{49.1, 8.5}
	require.NoError(t, e.Map().OnPointMoved("v1", moved))

	v, ok := e.Registry().Vertex("v1")
	require.True(t, ok)
	assert.Equal(t, moved, v.Coordinates)

	line, ok := e.Map().Line(e.Map().Lines()[0].ID)
	require.True(t, ok)
	assert.Contains(t, []core.LatLon{line.Path[0], line.Path[1]}, moved)
}

func TestDeleteVertexDeselects(t *testing.T) {
	e := loadedEngine(t, Config{})

	require.NoError(t, e.Selection().Select("v1"))
	require.NoError(t, e.Registry().DeleteVertex("v1"))

	assert.Empty(t, e.Selection().Selected())
	assert.Empty(t, e.Settings().Selection.Get())
	_, ok := e.Map().Point("v1")
	assert.False(t, ok)
	assert.Len(t, e.Timeline().Display(), 1)
}

func TestSaveRestore(t *testing.T) {
	ctx := context.Background()
	e := loadedEngine(t, Config{StatePath: filepath.Join(t.TempDir(), "state.db")})

	id, err := e.Save(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, e.Registry().Clear())
	require.Equal(t, 0, e.Registry().Count())
	assert.Empty(t, e.Map().Lines())

	snap, err := e.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, 7, e.Registry().Count())
	assert.Len(t, e.Map().Lines(), 1)
	assert.Len(t, e.Timeline().Display(), 2)

	edge, ok := e.Registry().Edge("v1->v2")
	require.True(t, ok)
	assert.Equal(t, "v2->v1", edge.Opposite)
}

func TestSaveRestore_KeepsChildOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tour.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
temporalGroups:
  - id: y
    subGroups:
      - id: z
        type: temporal
        subGroups:
          - id: g
            type: spatial
            vertices:
              - id: v
                coordinates: [1, 2]
                timestamp: 2019-05-01T10:00:00Z
                outgoingEdges: [{id: zz, to: c}, {id: aa, to: b}]
              - {id: c, coordinates: [1, 2], timestamp: 2019-05-01T10:01:00Z}
              - {id: b, coordinates: [1, 2], timestamp: 2019-05-01T10:02:00Z}
      - id: a
        type: temporal
`), 0o600))

	e := newTestEngine(t, Config{StatePath: filepath.Join(t.TempDir(), "state.db")})
	_, err := e.LoadTour(ctx, path)
	require.NoError(t, err)
	_, err = e.Save(ctx)
	require.NoError(t, err)

	require.NoError(t, e.Registry().Clear())
	_, err = e.Restore(ctx)
	require.NoError(t, err)

	y, _ := e.Registry().TemporalGroup("y")
	assert.Equal(t, []string{"z", "a"}, y.SubGroups)
	g, _ := e.Registry().SpatialGroup("g")
	assert.Equal(t, []string{"v", "c", "b"}, g.Vertices)
	v, _ := e.Registry().Vertex("v")
	assert.Equal(t, []string{"zz", "aa"}, v.Outgoing)
}

func TestSave_LogsSchemaVersion(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	e := loadedEngine(t, Config{Logger: logger})

	_, err := e.Save(context.Background())
	require.NoError(t, err)

	var ready []testutil.Record
	for _, r := range logs.AtLevel(slog.LevelDebug) {
		if r.Message == "state store ready" {
			ready = append(ready, r)
		}
	}
	require.Len(t, ready, 1)
	assert.Equal(t, ":memory:", ready[0].Attrs["path"])
	assert.Equal(t, int64(1), ready[0].Attrs["schema_version"])
}

func TestRestore_NothingSaved(t *testing.T) {
	e := loadedEngine(t, Config{})

	snap, err := e.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, 7, e.Registry().Count(), "graph is left alone")
}

func TestSave_ReadOnly(t *testing.T) {
	e := loadedEngine(t, Config{ReadOnly: true})

	_, err := e.Save(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsUnsupported(err))
}

type countingStore struct {
	saves  int
	closed bool
	last   *core.Snapshot
}

func (s *countingStore) SaveSnapshot(_ context.Context, snap *core.Snapshot) (string, error) {
	s.saves++
	s.last = snap
	return "snap-1", nil
}

func (s *countingStore) LoadSnapshot(context.Context) (*core.Snapshot, error) { return s.last, nil }

func (s *countingStore) Close() error {
	s.closed = true
	return nil
}

func TestWithStore(t *testing.T) {
	store := &countingStore{}
	e, err := New(Config{Viewer: config.Default()}, WithStore(store))
	require.NoError(t, err)

	_, err = e.LoadTour(context.Background(), writeTour(t))
	require.NoError(t, err)

	id, err := e.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snap-1", id)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 7, store.last.Size())

	require.NoError(t, e.Close())
	assert.True(t, store.closed)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{})
	path := writeTour(t)

	_, err := e.LoadTour(ctx, path)
	require.NoError(t, err)
	require.NoError(t, e.Registry().DeleteVertex("v2"))

	res, err := e.Reload(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Created)
	assert.Equal(t, 7, e.Registry().Count())
}
