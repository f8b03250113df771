package timeline

import (
	"slices"
	"strings"
	"time"
)

// Aggregator merges dense runs of items. It receives only items inside the
// visible window and returns the items to display in their place.
type Aggregator func(items []Item, critical time.Duration) []Item

// RangeID returns the id of the range spanning first to last.
func RangeID(first, last string) string {
	return "range:" + first + ".." + last
}

// Aggregate walks each row in start order and collapses every run of at
// least three items whose consecutive start times are less than critical
// apart into one range item. Shorter runs are returned unchanged.
func Aggregate(items []Item, critical time.Duration) []Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, compareItems)

	out := make([]Item, 0, len(sorted))
	var run []Item
	flush := func() {
		if len(run) >= 3 {
			out = append(out, newRange(run))
		} else {
			out = append(out, run...)
		}
		run = run[:0]
	}

	for _, it := range sorted {
		if len(run) > 0 {
			prev := run[len(run)-1]
			if prev.Group != it.Group || it.Start.Sub(prev.Start) >= critical {
				flush()
			}
		}
		run = append(run, it)
	}
	flush()
	return out
}

func newRange(run []Item) Item {
	first, last := run[0], run[len(run)-1]
	members := make([]string, len(run))
	for i, it := range run {
		members[i] = it.ID
	}
	return Item{
		ID:      RangeID(first.ID, last.ID),
		Group:   first.Group,
		Start:   first.Start,
		End:     last.Start,
		Members: members,
	}
}

// compareItems orders by row, then start time, then id.
func compareItems(a, b Item) int {
	if c := strings.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
