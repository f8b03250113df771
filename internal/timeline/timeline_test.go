package timeline

import (
	"testing"
	"time"

	"github.com/NiHoel/cirspecte-site/internal/config"
	"github.com/NiHoel/cirspecte-site/internal/eventbus"
	"github.com/NiHoel/cirspecte-site/internal/registry"
	"github.com/NiHoel/cirspecte-site/internal/settings"
	"github.com/NiHoel/cirspecte-site/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	calls []string
	items []Item
	sel   []string
}

func (r *recordingRenderer) SetItems(items []Item, _ []Group) {
	r.calls = append(r.calls, "items")
	r.items = items
}

func (r *recordingRenderer) SetSelection(ids []string) {
	r.calls = append(r.calls, "selection")
	r.sel = ids
}

type fixture struct {
	reg   *registry.Registry
	tl    *Timeline
	bus   *eventbus.Bus
	rend  *recordingRenderer
	calls int
}

// newFixture creates a timeline 200px wide showing 200s with 10px items,
// so one pixel is one second and the critical duration is 5s. Square holds
// vertices at 0,1,2,100,101s; park holds one vertex at 50s.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{bus: eventbus.New(), rend: &recordingRenderer{}}
	f.reg = registry.New(f.bus)
	counting := func(items []Item, critical time.Duration) []Item {
		f.calls++
		return Aggregate(items, critical)
	}
	f.tl = New(f.reg, WithAggregator(counting), WithItemWidth(10), WithRenderer(f.rend))
	t.Cleanup(f.tl.Close)
	f.tl.SetWidth(200)
	f.tl.SetWindow(t0, t0.Add(200*time.Second))

	_, err := f.reg.CreateTemporalGroup(core.TemporalGroupSpec{ID: "2019"})
	require.NoError(t, err)
	for _, g := range []string{"square", "park"} {
		_, err := f.reg.CreateSpatialGroup(core.SpatialGroupSpec{ID: g, Name: g, SuperGroup: "2019"})
		require.NoError(t, err)
	}
	vertices := []struct {
		id    string
		group string
		sec   int
	}{
		{"a", "square", 0}, {"b", "square", 1}, {"c", "square", 2},
		{"d", "square", 100}, {"e", "square", 101}, {"p", "park", 50},
	}
	for _, v := range vertices {
		_, err := f.reg.CreateVertex(core.VertexSpec{
			ID:          v.id,
			Coordinates: core.LatLon{49, 8},
			Timestamp:   t0.Add(time.Duration(v.sec) * time.Second),
			GroupID:     v.group,
		})
		require.NoError(t, err)
	}
	return f
}

func TestTimeline_Scale(t *testing.T) {
	f := newFixture(t)
	assert.InDelta(t, 1000.0, f.tl.MillisecondsPerPixel(), 1e-9)
	assert.Equal(t, 5*time.Second, f.tl.CriticalDuration())
}

func TestTimeline_AggregatesDenseRuns(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{"p", RangeID("a", "c"), "d", "e"}, ids(f.tl.Display()))
	assert.Equal(t, ids(f.tl.Display()), ids(f.rend.items))
	assert.Len(t, f.tl.Items(), 6)
	assert.Equal(t, []Group{{ID: "park", Title: "park"}, {ID: "square", Title: "square"}}, f.tl.Groups())
}

func TestTimeline_RefreshSkipsWhenUnchanged(t *testing.T) {
	f := newFixture(t)
	f.calls = 0

	assert.False(t, f.tl.Refresh(false))
	assert.False(t, f.tl.Refresh(false))
	assert.Equal(t, 0, f.calls)

	f.tl.SetWindow(t0, t0.Add(400*time.Second))
	assert.Equal(t, 1, f.calls)
	f.tl.SetWindow(t0, t0.Add(400*time.Second))
	assert.Equal(t, 1, f.calls)

	assert.True(t, f.tl.Refresh(true))
	assert.Equal(t, 2, f.calls)
}

func TestTimeline_ZoomInSplitsRange(t *testing.T) {
	f := newFixture(t)

	// 0.01s per pixel: critical duration 50ms, nothing merges.
	f.tl.SetWindow(t0, t0.Add(2*time.Second))

	assert.Equal(t, []string{"p", "a", "b", "c", "d", "e"}, ids(f.tl.Display()),
		"items outside the window are kept as they are")
}

func TestTimeline_AggregateToggle(t *testing.T) {
	f := newFixture(t)
	f.calls = 0

	f.tl.SetAggregate(false)
	assert.Len(t, f.tl.Display(), 6)
	assert.Equal(t, 0, f.calls)

	f.tl.SetAggregate(true)
	assert.Len(t, f.tl.Display(), 4)
	assert.Equal(t, 1, f.calls)
}

func TestTimeline_SelectionPushedAfterEveryRefresh(t *testing.T) {
	f := newFixture(t)
	f.tl.SetSelection([]string{"d"})
	f.rend.calls = nil

	f.tl.Refresh(true)

	assert.Equal(t, []string{"items", "selection"}, f.rend.calls)
	assert.Equal(t, []string{"d"}, f.rend.sel)
}

func TestTimeline_GroupChangeRebuildsAll(t *testing.T) {
	f := newFixture(t)
	f.calls = 0

	require.NoError(t, f.reg.MoveVertex("b", "park"))

	assert.Equal(t, 1, f.calls, "group change forces a refresh")
	items := map[string]Item{}
	for _, it := range f.tl.Items() {
		items[it.ID] = it
	}
	assert.Equal(t, "park", items["b"].Group)
	// Square lost its run of three; park gained a pair.
	assert.Equal(t, []string{"b", "p", "a", "c", "d", "e"}, ids(f.tl.Display()))
}

func TestTimeline_TimestampChange(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.reg.SetTimestamp("d", t0.Add(3*time.Second)))

	assert.Equal(t, []string{"p", RangeID("a", "d"), "e"}, ids(f.tl.Display()))

	f.calls = 0
	require.NoError(t, f.reg.SetCoordinates("d", core.LatLon{48, 7}))
	assert.Equal(t, 0, f.calls, "coordinates do not affect the timeline")
}

func TestTimeline_DeleteVertex(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.reg.DeleteVertex("b"))

	assert.Equal(t, []string{"p", "a", "c", "d", "e"}, ids(f.tl.Display()))

	require.NoError(t, f.reg.DeleteSpatialGroup("square"))
	assert.Equal(t, []string{"p"}, ids(f.tl.Display()))
	assert.Len(t, f.tl.Groups(), 1)
}

func TestTimeline_Click(t *testing.T) {
	f := newFixture(t)
	clicks := f.bus.Observe(core.KindItem, core.ActionClick)
	defer clicks.Close()

	require.NoError(t, f.tl.Click("d"))
	assert.Equal(t, []string{"d"}, clicks.IDs())

	require.NoError(t, f.tl.Click(RangeID("a", "c")))
	start, end := f.tl.Window()
	assert.True(t, start.Equal(t0))
	assert.True(t, end.Equal(t0.Add(2*time.Second)))
	assert.Empty(t, clicks.Drain())

	assert.True(t, core.IsReference(f.tl.Click("nope")))
}

func TestTimeline_BoundToSettings(t *testing.T) {
	bus := eventbus.New()
	reg := registry.New(bus)
	s := settings.New(config.Default())
	tl := New(reg, WithSettings(s), WithItemWidth(10))
	defer tl.Close()

	s.Width.Set(100)
	s.SetWindow(t0, t0.Add(100*time.Second))

	start, end := tl.Window()
	assert.True(t, start.Equal(t0))
	assert.True(t, end.Equal(t0.Add(100*time.Second)))
	assert.Equal(t, 5*time.Second, tl.CriticalDuration())

	s.AggregateItems.Set(false)
	assert.False(t, tl.aggregateOn)
}

func TestTimeline_Rebuild(t *testing.T) {
	f := newFixture(t)
	late := New(f.reg, WithItemWidth(10))
	defer late.Close()
	late.SetWidth(200)
	late.SetWindow(t0, t0.Add(200*time.Second))
	assert.Empty(t, late.Display())

	require.NoError(t, late.Rebuild())
	assert.Equal(t, ids(f.tl.Display()), ids(late.Display()))
}
