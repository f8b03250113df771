package settings

import (
	"testing"
	"time"

	"github.com/NiHoel/cirspecte-site/internal/config"
	"github.com/NiHoel/cirspecte-site/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_EmitsOnlyOnChange(t *testing.T) {
	v := NewValue(3)
	var seen []int
	unsubscribe := v.Subscribe(func(x int) { seen = append(seen, x) })

	assert.False(t, v.Set(3))
	assert.True(t, v.Set(4))
	assert.True(t, v.Set(5))
	assert.False(t, v.Set(5))
	assert.Equal(t, []int{4, 5}, seen)

	unsubscribe()
	v.Set(6)
	assert.Equal(t, []int{4, 5}, seen)
	assert.Equal(t, 6, v.Get())
}

func TestValue_SubscribersSeeNewValue(t *testing.T) {
	v := NewValueFunc(core.LatLon{}, core.LatLon.Equal)
	var got core.LatLon
	v.Subscribe(func(core.LatLon) { got = v.Get() })

	v.Set(core.LatLon{1, 2})
	assert.Equal(t, core.LatLon{1, 2}, got)
}

func TestSameIDs(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, nil, true},
		{nil, []string{}, true},
		{[]string{"a", "b"}, []string{"b", "a"}, true},
		{[]string{"a", "a"}, []string{"a"}, true},
		{[]string{"a"}, []string{"a", "b"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SameIDs(tt.a, tt.b), "%v vs %v", tt.a, tt.b)
	}
}

func TestSettings_SelectionEqualityGuard(t *testing.T) {
	s := New(config.Default())
	calls := 0
	s.Selection.Subscribe(func([]string) { calls++ })

	require.True(t, s.Selection.Set([]string{"a", "b"}))
	assert.False(t, s.Selection.Set([]string{"b", "a"}))
	assert.Equal(t, 1, calls)
}

func TestSettings_SetWindowClamps(t *testing.T) {
	s := New(config.Default())
	base := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Min.Set(base)
	s.Max.Set(base.Add(48 * time.Hour))

	changed := s.SetWindow(base.Add(-time.Hour), base.Add(72*time.Hour))
	assert.True(t, changed)
	assert.True(t, s.Start.Get().Equal(base))
	assert.True(t, s.End.Get().Equal(base.Add(48*time.Hour)))

	assert.False(t, s.SetWindow(base, base.Add(48*time.Hour)))
}

func TestNew_SeedsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Timeline.WidthPx = 640
	cfg.Timeline.AggregateItems = false

	s := New(cfg)
	assert.Equal(t, 640, s.Width.Get())
	assert.False(t, s.AggregateItems.Get())
	assert.Equal(t, cfg.Map.Zoom, s.Zoom.Get())
}
