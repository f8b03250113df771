package selection

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

type recordingSink struct {
	pushes [][]string
}

func (s *recordingSink) SetSelection(ids []string) {
	s.pushes = append(s.pushes, ids)
}

func (s *recordingSink) last() []string {
	if len(s.pushes) == 0 {
		return nil
	}
	return s.pushes[len(s.pushes)-1]
}

type transition struct {
	action core.Action
	id     string
}

// newFixture registers 2019 > {square (exclusive): A B C, park (exclusive): X,
// multi (multiselect): M N} and top > lone: T1 T2 where top has no super group.
func newFixture(t *testing.T, opts ...Option) (*Coordinator, *registry.Registry, *[]transition) {
	t.Helper()
	bus := eventbus.New()
	reg := registry.New(bus)

	_, err := reg.CreateTemporalGroup(core.TemporalGroupSpec{ID: "2019"})
	require.NoError(t, err)
	for _, g := range []core.SpatialGroupSpec{
		{ID: "square", SuperGroup: "2019"},
		{ID: "park", SuperGroup: "2019"},
		{ID: "multi", SuperGroup: "2019", Multiselect: true},
	} {
		_, err := reg.CreateSpatialGroup(g)
		require.NoError(t, err)
	}
	members := map[string][]string{"square": {"A", "B", "C"}, "park": {"X"}, "multi": {"M", "N"}}
	for group, ids := range members {
		for _, id := range ids {
			_, err := reg.CreateVertex(core.VertexSpec{
				ID: id, Coordinates: core.LatLon{1, 1}, Timestamp: time.Unix(1, 0), GroupID: group,
			})
			require.NoError(t, err)
		}
	}

	var events []transition
	for _, action := range []core.Action{core.ActionSelect, core.ActionDeselect} {
		bus.Subscribe(core.KindVertex, action, func(ev core.Event) error {
			events = append(events, transition{ev.Action, ev.ID})
			return nil
		})
	}

	c := New(bus, reg, opts...)
	t.Cleanup(c.Close)
	return c, reg, &events
}

func TestCoordinator_ExclusiveGroup(t *testing.T) {
	sink := &recordingSink{}
	c, _, events := newFixture(t, WithSinks(sink))

	require.NoError(t, c.Select("A"))
	*events = nil
	require.NoError(t, c.Select("B"))

	assert.Equal(t, []string{"B"}, c.Selected())
	assert.Equal(t, []transition{
		{core.ActionDeselect, "A"},
		{core.ActionSelect, "B"},
	}, *events)
	assert.Equal(t, []string{"B"}, sink.last())
}

func TestCoordinator_OtherGroupsUnaffected(t *testing.T) {
	c, _, events := newFixture(t)

	require.NoError(t, c.Select("B"))
	*events = nil
	require.NoError(t, c.Select("X"))

	assert.Equal(t, []string{"B", "X"}, c.Selected())
	assert.Equal(t, []transition{{core.ActionSelect, "X"}}, *events)
}

func TestCoordinator_MultiselectGroup(t *testing.T) {
	c, _, _ := newFixture(t)

	require.NoError(t, c.Select("M"))
	require.NoError(t, c.Select("N"))

	assert.Equal(t, []string{"M", "N"}, c.Selected())
}

func TestCoordinator_TopLevelGroupIsMultiselect(t *testing.T) {
	c, reg, _ := newFixture(t)
	// A spatial group always has a super group, so top-level is checked via a
	// resolver that reports none.
	top := &topLevelResolver{Registry: reg}
	c.groups = top

	require.NoError(t, c.Select("A"))
	require.NoError(t, c.Select("B"))
	assert.Equal(t, []string{"A", "B"}, c.Selected())
}

type topLevelResolver struct {
	*registry.Registry
}

func (r *topLevelResolver) GroupParent(string) (string, bool) { return "", false }

func TestCoordinator_Toggle(t *testing.T) {
	c, _, events := newFixture(t)

	require.NoError(t, c.Toggle("A"))
	assert.True(t, c.IsSelected("A"))
	require.NoError(t, c.Toggle("A"))
	assert.False(t, c.IsSelected("A"))

	require.NoError(t, c.SetSelected("C", true))
	require.NoError(t, c.SetSelected("C", true))
	assert.Equal(t, []string{"C"}, c.Selected())

	*events = nil
	require.NoError(t, c.Deselect("A"))
	assert.Empty(t, *events, "deselecting an unselected id emits nothing")

	assert.True(t, core.IsReference(c.Select("ghost")))
}

func TestCoordinator_Sync(t *testing.T) {
	sink := &recordingSink{}
	c, _, events := newFixture(t, WithSinks(sink))
	require.NoError(t, c.Select("A"))
	require.NoError(t, c.Select("X"))
	*events = nil
	sink.pushes = nil

	require.NoError(t, c.Sync([]string{"X", "B", "C", "ghost"}))

	assert.Equal(t, []transition{
		{core.ActionDeselect, "A"},
		{core.ActionSelect, "B"},
		{core.ActionSelect, "C"},
	}, *events)
	assert.ElementsMatch(t, []string{"X", "B", "C"}, c.Selected())
	require.Len(t, sink.pushes, 1)

	*events = nil
	require.NoError(t, c.Sync([]string{"C", "B", "X"}))
	assert.Empty(t, *events)
	assert.Len(t, sink.pushes, 1, "unchanged sync pushes nothing")
}

func TestCoordinator_SettingsRoundTrip(t *testing.T) {
	s := settings.New(config.Default())
	c, _, events := newFixture(t, WithSettings(s))

	require.NoError(t, c.Select("A"))
	assert.Equal(t, []string{"A"}, s.Selection.Get())

	*events = nil
	s.Selection.Set([]string{"A", "M"})
	assert.Equal(t, []transition{{core.ActionSelect, "M"}}, *events)
	assert.Equal(t, []string{"A", "M"}, c.Selected())
}

func TestCoordinator_DeletedVertexLeavesSelection(t *testing.T) {
	sink := &recordingSink{}
	c, reg, _ := newFixture(t, WithSinks(sink))
	require.NoError(t, c.Select("A"))

	require.NoError(t, reg.DeleteVertex("A"))

	assert.Empty(t, c.Selected())
	assert.Empty(t, sink.last())
}

func TestCoordinator_ClearAndAddSink(t *testing.T) {
	c, _, _ := newFixture(t)
	require.NoError(t, c.Select("A"))
	require.NoError(t, c.Select("M"))

	late := &recordingSink{}
	c.AddSink(late)
	assert.Equal(t, []string{"A", "M"}, late.last())

	require.NoError(t, c.Clear())
	assert.Empty(t, c.Selected())
	assert.Empty(t, late.last())
}

func TestCoordinator_MovedVertexFollowsNewGroup(t *testing.T) {
	c, reg, events := newFixture(t)

	require.NoError(t, c.Select("A"))
	require.NoError(t, reg.MoveVertex("A", "park"))
	*events = nil

	require.NoError(t, c.Select("X"))
	assert.Equal(t, []string{"X"}, c.Selected(), "A now shares park with X")
	assert.Equal(t, []transition{
		{core.ActionDeselect, "A"},
		{core.ActionSelect, "X"},
	}, *events)

	require.NoError(t, c.Select("B"))
	assert.Equal(t, []string{"X", "B"}, c.Selected(), "A left square, nothing to deselect there")

	require.NoError(t, reg.MoveVertex("X", "square"))
	require.NoError(t, c.Select("C"))
	assert.Equal(t, []string{"C"}, c.Selected())
}
