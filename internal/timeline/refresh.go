package timeline

import (
	"slices"
	"time"
)

// SetWindow sets the visible window and refreshes.
func (t *Timeline) SetWindow(start, end time.Time) {
	t.start, t.end = start, end
	t.Refresh(false)
}

// SetWidth sets the pixel width and refreshes.
func (t *Timeline) SetWidth(px int) {
	if px <= 0 {
		return
	}
	t.width = px
	t.Refresh(false)
}

// SetAggregate turns aggregation on or off and forces a refresh.
func (t *Timeline) SetAggregate(on bool) {
	if t.aggregateOn == on {
		return
	}
	t.aggregateOn = on
	t.Refresh(true)
}

// Window returns the visible window.
func (t *Timeline) Window() (start, end time.Time) {
	return t.start, t.end
}

// MillisecondsPerPixel returns the scale computed by the last refresh.
func (t *Timeline) MillisecondsPerPixel() float64 {
	return t.msPerPixel
}

// CriticalDuration is the gap below which neighbouring items are merged:
// half an item width at the current scale.
func (t *Timeline) CriticalDuration() time.Duration {
	return pixels(float64(t.itemWidth)/2, t.msPerPixel)
}

func pixels(px, msPerPixel float64) time.Duration {
	return time.Duration(px * msPerPixel * float64(time.Millisecond))
}

// Refresh recomputes the displayed items. Unless force is set, it does nothing
// when neither the window nor the width changed since the last pass. It
// reports whether a recomputation happened.
func (t *Timeline) Refresh(force bool) bool {
	if !force && t.last.valid &&
		t.last.width == t.width && t.last.start.Equal(t.start) && t.last.end.Equal(t.end) {
		return false
	}
	t.last.start, t.last.end, t.last.width, t.last.valid = t.start, t.end, t.width, true

	windowed := !t.start.IsZero() && !t.end.IsZero() && t.end.After(t.start)
	t.msPerPixel = 0
	if windowed && t.width > 0 {
		t.msPerPixel = float64(t.end.Sub(t.start).Milliseconds()) / float64(t.width)
	}
	margin := pixels(float64(t.itemWidth), t.msPerPixel)
	lo, hi := t.start.Add(-margin), t.end.Add(margin)

	var inside, outside []Item
	for _, it := range t.items {
		if !windowed || (!it.Start.Before(lo) && !it.Start.After(hi)) {
			inside = append(inside, *it)
		} else {
			outside = append(outside, *it)
		}
	}

	display := inside
	if t.aggregateOn && windowed {
		display = t.aggregator(inside, t.CriticalDuration())
	}
	display = append(display, outside...)
	slices.SortStableFunc(display, compareItems)
	t.display = display

	t.renderer.SetItems(slices.Clone(display), t.Groups())
	t.renderer.SetSelection(slices.Clone(t.selection))
	return true
}
