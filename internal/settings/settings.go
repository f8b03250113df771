package settings

import (
	"slices"
	"time"

	"github.com/NiHoel/cirspecte-site/internal/config"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Bounds is the visible map rectangle.
type Bounds struct {
	SouthWest core.LatLon
	NorthEast core.LatLon
}

// Settings is the set of observable values the projections react to.
// The engine owns it; nothing in here is persisted.
type Settings struct {
	Zoom   *Value[float64]
	Center *Value[core.LatLon]
	Bounds *Value[Bounds]

	// Start and End are the visible timeline window.
	Start *Value[time.Time]
	End   *Value[time.Time]
	// Min and Max bound how far the window may be moved.
	Min *Value[time.Time]
	Max *Value[time.Time]

	Width          *Value[int]
	AggregateItems *Value[bool]

	// Selection is the externally authoritative set of selected ids.
	Selection *Value[[]string]
}

// New creates settings seeded from cfg.
func New(cfg config.ViewerConfig) *Settings {
	return &Settings{
		Zoom:           NewValue(cfg.Map.Zoom),
		Center:         NewValueFunc(core.LatLon{}, core.LatLon.Equal),
		Bounds:         NewValue(Bounds{}),
		Start:          NewValueFunc(time.Time{}, time.Time.Equal),
		End:            NewValueFunc(time.Time{}, time.Time.Equal),
		Min:            NewValueFunc(time.Time{}, time.Time.Equal),
		Max:            NewValueFunc(time.Time{}, time.Time.Equal),
		Width:          NewValue(cfg.Timeline.WidthPx),
		AggregateItems: NewValue(cfg.Timeline.AggregateItems),
		Selection:      NewValueFunc[[]string](nil, SameIDs),
	}
}

// SetWindow moves the timeline window, clamped to [Min, Max] when those are set.
// It reports whether either bound changed.
func (s *Settings) SetWindow(start, end time.Time) bool {
	if lo := s.Min.Get(); !lo.IsZero() && start.Before(lo) {
		start = lo
	}
	if hi := s.Max.Get(); !hi.IsZero() && end.After(hi) {
		end = hi
	}
	changedStart := s.Start.Set(start)
	changedEnd := s.End.Set(end)
	return changedStart || changedEnd
}

// SameIDs reports whether a and b contain the same ids, ignoring order and
// duplicates.
func SameIDs(a, b []string) bool {
	as := uniqueSorted(a)
	bs := uniqueSorted(b)
	return slices.Equal(as, bs)
}

func uniqueSorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
