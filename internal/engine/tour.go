package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/NiHoel/cirspecte-site/internal/loader"
)

// LoadTour loads the tour document at path into the graph and fits the
// timeline window to the loaded timestamps.
func (e *Engine) LoadTour(ctx context.Context, path string) (loader.Result, error) {
	e.logger.Debug("loading tour", "path", path)

	res, err := e.loader.Load(ctx, path)
	if err != nil {
		return res, fmt.Errorf("failed to load tour: %w", err)
	}

	e.FitWindow()
	e.logger.Info("tour loaded",
		"path", path,
		"documents", len(res.Documents),
		"created", res.Created,
		"failed", res.Failed,
	)
	return res, nil
}

// Reload drops the whole graph and loads path again.
func (e *Engine) Reload(ctx context.Context, path string) (loader.Result, error) {
	if err := e.registry.Clear(); err != nil {
		return loader.Result{}, fmt.Errorf("failed to clear graph: %w", err)
	}
	return e.LoadTour(ctx, path)
}

// FitWindow sets the timeline bounds and window to the span of all vertex
// timestamps. A single instant is widened by a second on each side. An
// empty graph leaves the window untouched.
func (e *Engine) FitWindow() {
	first, last, ok := e.TimeRange()
	if !ok {
		return
	}
	if !last.After(first) {
		first, last = first.Add(-time.Second), last.Add(time.Second)
	}
	e.settings.Min.Set(first)
	e.settings.Max.Set(last)
	e.settings.SetWindow(first, last)
}

// TimeRange returns the earliest and latest vertex timestamps.
func (e *Engine) TimeRange() (first, last time.Time, ok bool) {
	for _, v := range e.registry.Vertices() {
		if !ok || v.Timestamp.Before(first) {
			first = v.Timestamp
		}
		if !ok || v.Timestamp.After(last) {
			last = v.Timestamp
		}
		ok = true
	}
	return first, last, ok
}
