package mapview

import (
	"testing"
	"time"

	"github.com/NiHoel/cirspecte-site/internal/eventbus"
	"github.com/NiHoel/cirspecte-site/internal/registry"
	"github.com/NiHoel/cirspecte-site/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2019, 5, 1, 10, 0, 0, 0, time.UTC)

// populate builds 2019 > {square: v1 v2 v3, park: v4} with edges
// v1<->v2 (paired), v2->v3 and v3->v4.
func populate(t *testing.T, reg *registry.Registry) {
	t.Helper()
	_, err := reg.CreateTemporalGroup(core.TemporalGroupSpec{ID: "2019", Title: "2019"})
	require.NoError(t, err)
	for _, id := range []string{"square", "park"} {
		_, err := reg.CreateSpatialGroup(core.SpatialGroupSpec{ID: id, Name: id, SuperGroup: "2019"})
		require.NoError(t, err)
	}
	vertices := []struct{ id, group string }{
		{"v1", "square"}, {"v2", "square"}, {"v3", "square"}, {"v4", "park"},
	}
	for i, v := range vertices {
		_, err := reg.CreateVertex(core.VertexSpec{
			ID:          v.id,
			Coordinates: core.LatLon{49 + float64(i)/100, 8.4},
			Timestamp:   t0.Add(time.Duration(i) * time.Minute),
			GroupID:     v.group,
		})
		require.NoError(t, err)
	}
	for _, e := range [][2]string{{"v1", "v2"}, {"v2", "v1"}, {"v2", "v3"}, {"v3", "v4"}} {
		_, err := reg.CreateEdge(core.EdgeSpec{From: e[0], To: e[1]})
		require.NoError(t, err)
	}
}

func newFixture(t *testing.T, opts ...Option) (*registry.Registry, *Map, *eventbus.Bus) {
	t.Helper()
	bus := eventbus.New()
	reg := registry.New(bus)
	m := New(reg, opts...)
	t.Cleanup(m.Close)
	populate(t, reg)
	return reg, m, bus
}

func TestMap_MirrorsNesting(t *testing.T) {
	_, m, _ := newFixture(t)

	ctrl, ok := m.ControlGroup("2019")
	require.True(t, ok)
	assert.Equal(t, RootID, ctrl.Parent)
	assert.Equal(t, []string{"square", "park"}, ctrl.Layers)
	assert.Equal(t, []string{"2019"}, m.Root().Controls)

	square, ok := m.LayerGroup("square")
	require.True(t, ok)
	assert.Equal(t, "2019", square.Parent)
	assert.Equal(t, []string{"v1", "v2", "v3"}, square.Points)

	p, ok := m.Point("v4")
	require.True(t, ok)
	assert.Equal(t, "park", p.Parent)

	// The pair v1<->v2 shares one line.
	l1, _ := m.LineOf("v1->v2")
	l2, _ := m.LineOf("v2->v1")
	assert.Equal(t, l1, l2)
	assert.Len(t, m.Lines(), 3)
	for _, l := range m.Lines() {
		assert.True(t, l.Attached, l.ID)
	}
}

func TestMap_DeriveParent(t *testing.T) {
	reg, m, _ := newFixture(t)
	_, err := reg.CreateTemporalGroup(core.TemporalGroupSpec{ID: "spring", SuperGroup: "2019"})
	require.NoError(t, err)

	tests := []struct {
		kind core.EntityKind
		id   string
		want string
	}{
		{core.KindPoint, "v1", "square"},
		{core.KindLayerGroup, "park", "2019"},
		{core.KindControlGroup, "2019", RootID},
		{core.KindControlGroup, "spring", "2019"},
	}
	for _, tt := range tests {
		got, err := m.DeriveParent(tt.kind, tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.kind, tt.id)
	}

	_, err = m.DeriveParent(core.KindPoint, "ghost")
	assert.True(t, core.IsReference(err))
}

func TestMap_ReparentOnGroupChange(t *testing.T) {
	reg, m, _ := newFixture(t)
	before := map[string]string{}
	for _, id := range []string{"v2", "v3", "v4"} {
		p, _ := m.Point(id)
		before[id] = p.Parent
	}

	require.NoError(t, reg.MoveVertex("v1", "park"))

	p, _ := m.Point("v1")
	assert.Equal(t, "park", p.Parent)
	square, _ := m.LayerGroup("square")
	park, _ := m.LayerGroup("park")
	assert.NotContains(t, square.Points, "v1")
	assert.Contains(t, park.Points, "v1")

	for id, parent := range before {
		p, _ := m.Point(id)
		assert.Equal(t, parent, p.Parent, "%s must not move", id)
	}
}

func TestMap_ReparentControlGroup(t *testing.T) {
	reg, m, _ := newFixture(t)
	_, err := reg.CreateTemporalGroup(core.TemporalGroupSpec{ID: "spring", SuperGroup: "2019"})
	require.NoError(t, err)

	require.NoError(t, reg.MoveTemporalGroup("spring", ""))

	spring, _ := m.ControlGroup("spring")
	assert.Equal(t, RootID, spring.Parent)
	assert.ElementsMatch(t, []string{"2019", "spring"}, m.Root().Controls)
	y2019, _ := m.ControlGroup("2019")
	assert.Empty(t, y2019.Controls)
}

func TestMap_DeletePairedEdgeDeletesSharedLineOnce(t *testing.T) {
	reg, m, bus := newFixture(t)
	deleted := bus.Observe(core.KindLine, core.ActionDelete)
	defer deleted.Close()
	shared, ok := m.LineOf("v1->v2")
	require.True(t, ok)

	require.NoError(t, reg.DeleteEdge("v2->v1"))

	assert.Equal(t, []string{shared}, deleted.IDs())
	_, ok = m.Line(shared)
	assert.False(t, ok)
	_, ok = m.LineOf("v2->v1")
	assert.False(t, ok)
	_, ok = m.LineOf("v1->v2")
	assert.False(t, ok, "the opposite edge's reference goes with the shared line")

	// Deleting the other half has no line left to delete.
	require.NoError(t, reg.DeleteEdge("v1->v2"))
	assert.Empty(t, deleted.Drain())
}

func TestMap_DeleteVertexDeletesPairedLineWithoutRedrawing(t *testing.T) {
	reg, m, bus := newFixture(t)
	created := bus.Observe(core.KindLine, core.ActionCreate)
	deleted := bus.Observe(core.KindLine, core.ActionDelete)
	defer created.Close()
	defer deleted.Close()
	shared, _ := m.LineOf("v1->v2")

	require.NoError(t, reg.DeleteVertex("v1"))

	assert.Empty(t, created.Drain(), "no line is created during the cascade")
	assert.Equal(t, []string{shared}, deleted.IDs())
	assert.Len(t, m.Lines(), 2, "v2->v3 and v3->v4 remain")
}

func TestMap_DeleteVertexRemovesIncidentLines(t *testing.T) {
	reg, m, _ := newFixture(t)

	require.NoError(t, reg.DeleteVertex("v2"))

	_, ok := m.Point("v2")
	assert.False(t, ok)
	for _, l := range m.Lines() {
		assert.NotEqual(t, "v2", l.From)
		assert.NotEqual(t, "v2", l.To)
	}
	assert.Len(t, m.Lines(), 1, "only v3->v4 remains")
}

func TestMap_DeleteTemporalGroupCascades(t *testing.T) {
	reg, m, bus := newFixture(t)
	controls := bus.Observe(core.KindControlGroup, core.ActionDelete)
	layers := bus.Observe(core.KindLayerGroup, core.ActionDelete)
	points := bus.Observe(core.KindPoint, core.ActionDelete)
	defer controls.Close()
	defer layers.Close()
	defer points.Close()

	require.NoError(t, reg.DeleteTemporalGroup("2019"))

	assert.Equal(t, []string{"2019"}, controls.IDs())
	assert.ElementsMatch(t, []string{"square", "park"}, layers.IDs())
	assert.ElementsMatch(t, []string{"v1", "v2", "v3", "v4"}, points.IDs())
	assert.Empty(t, m.Root().Controls)
	assert.Empty(t, m.Lines())
}

type echoRenderer struct {
	noopRenderer
	m     *Map
	moves int
	paths map[string][2]core.LatLon
}

// MovePoint reports the programmatic move back like a real map widget does.
func (r *echoRenderer) MovePoint(id string, c core.LatLon) {
	r.moves++
	_ = r.m.OnPointMoved(id, c)
}

func (r *echoRenderer) SetLinePath(id string, path [2]core.LatLon) {
	r.paths[id] = path
}

func TestMap_CoordinateWriteDoesNotEchoAsDrag(t *testing.T) {
	r := &echoRenderer{paths: map[string][2]core.LatLon{}}
	reg, m, bus := newFixture(t, WithRenderer(r))
	r.m = m
	drags := bus.Observe(core.KindPoint, core.ActionDrag)
	defer drags.Close()

	target := core.LatLon{50, 9}
	require.NoError(t, reg.SetCoordinates("v1", target))

	assert.Equal(t, 1, r.moves)
	assert.Empty(t, drags.Drain(), "programmatic write must not look like a drag")
	p, _ := m.Point("v1")
	assert.Equal(t, target, p.Coordinates)

	line, _ := m.LineOf("v1->v2")
	assert.Equal(t, target, r.paths[line][0])

	// Writing the same coordinates again is a no-op.
	require.NoError(t, m.UpdatePointCoordinates("v1"))
	assert.Equal(t, 1, r.moves)
}

type panickingRenderer struct {
	noopRenderer
	panicOnMove bool
}

func (r *panickingRenderer) MovePoint(string, core.LatLon) {
	if r.panicOnMove {
		panic("renderer failed")
	}
}

func TestMap_RendererPanicReleasesWriteGuard(t *testing.T) {
	r := &panickingRenderer{}
	reg, m, bus := newFixture(t, WithRenderer(r))
	drags := bus.Observe(core.KindPoint, core.ActionDrag)
	defer drags.Close()

	r.panicOnMove = true
	assert.Panics(t, func() { _ = reg.SetCoordinates("v1", core.LatLon{50, 9}) })
	r.panicOnMove = false

	require.NoError(t, m.OnPointMoved("v2", core.LatLon{51, 9}))
	assert.Equal(t, []string{"v2"}, drags.IDs(), "user drags still go through")
}

func TestMap_UserDragRoundTrip(t *testing.T) {
	reg, m, bus := newFixture(t)
	var drags int
	bus.Subscribe(core.KindPoint, core.ActionDrag, func(ev core.Event) error {
		drags++
		return reg.SetCoordinates(ev.ID, ev.Value.(core.LatLon))
	})

	target := core.LatLon{48, 7}
	require.NoError(t, m.OnPointMoved("v3", target))
	require.NoError(t, m.OnPointMoved("v3", target))

	assert.Equal(t, 1, drags)
	v3, _ := reg.Vertex("v3")
	assert.Equal(t, target, v3.Coordinates)
	l, _ := m.Line("v3->v4")
	assert.Equal(t, target, l.Path[0])
}

func TestMap_HideAndShow(t *testing.T) {
	_, m, bus := newFixture(t)
	hides := bus.Observe(core.KindLayerGroup, core.ActionHide)
	defer hides.Close()

	require.NoError(t, m.Hide("park"))
	assert.Equal(t, []string{"park"}, hides.IDs())
	assert.False(t, m.Displayed("v4"))
	assert.True(t, m.Displayed("v3"))

	l, _ := m.Line("v3->v4")
	assert.False(t, l.Attached, "line needs both end points displayed")
	shared, _ := m.LineOf("v1->v2")
	assert.True(t, m.Displayed(shared))

	require.NoError(t, m.Hide("park"))
	assert.Empty(t, hides.Drain(), "hiding twice is silent")

	require.NoError(t, m.Show("park"))
	assert.True(t, l.Attached)

	require.NoError(t, m.Hide("2019"))
	for _, l := range m.Lines() {
		assert.False(t, l.Attached, l.ID)
	}
	assert.False(t, m.Displayed("square"))
	require.NoError(t, m.Show("2019"))
	assert.True(t, m.Displayed("v1"))

	assert.True(t, core.IsReference(m.Hide("nope")))
}

func TestMap_MovedVertexIntoHiddenLayerDetachesLines(t *testing.T) {
	reg, m, _ := newFixture(t)
	require.NoError(t, m.Hide("park"))

	require.NoError(t, reg.MoveVertex("v3", "park"))

	l, _ := m.Line("v2->v3")
	assert.False(t, l.Attached)
}

func TestMap_Rebuild(t *testing.T) {
	bus := eventbus.New()
	reg := registry.New(bus)
	populate(t, reg)

	m := New(reg)
	defer m.Close()
	assert.Empty(t, m.Lines(), "entities created before New are not mirrored yet")

	require.NoError(t, m.Rebuild())
	p, ok := m.Point("v1")
	require.True(t, ok)
	assert.Equal(t, "square", p.Parent)
	assert.Len(t, m.Lines(), 3)

	// Rebuilding again yields the same tree.
	before := m.Tree()
	require.NoError(t, m.Rebuild())
	assert.Equal(t, before, m.Tree())
}

func TestMap_ClickAndSelection(t *testing.T) {
	_, m, bus := newFixture(t)
	clicks := bus.Observe(core.KindPoint, core.ActionClick)
	defer clicks.Close()

	require.NoError(t, m.Click("v2"))
	assert.Equal(t, []string{"v2"}, clicks.IDs())
	assert.True(t, core.IsReference(m.Click("ghost")))

	m.SetSelection([]string{"v2", "v4"})
	p2, _ := m.Point("v2")
	p1, _ := m.Point("v1")
	assert.True(t, p2.Selected)
	assert.False(t, p1.Selected)
}

func TestMap_Tree(t *testing.T) {
	_, m, _ := newFixture(t)
	tree := m.Tree()

	assert.Equal(t, RootID, tree.ID)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "2019", tree.Children[0].ID)
	assert.Equal(t, LinesID, tree.Children[1].ID)
	assert.Len(t, tree.Children[1].Children, 3)

	square := tree.Children[0].Children[0]
	assert.Equal(t, core.KindLayerGroup, square.Kind)
	assert.Len(t, square.Children, 3)
}
