package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/NiHoel/cirspecte-site/internal/registry"
	"github.com/NiHoel/cirspecte-site/pkg/core"
	"golang.org/x/sync/errgroup"
)

// Result summarizes a load. Succeeded stays true only while every entity of
// every document was created; individual failures are logged.
type Result struct {
	Succeeded bool
	Created   int
	Failed    int
	Documents []string
}

func (r *Result) merge(other Result) {
	r.Succeeded = r.Succeeded && other.Succeeded
	r.Created += other.Created
	r.Failed += other.Failed
	r.Documents = append(r.Documents, other.Documents...)
}

// Loader applies tour documents to a registry.
type Loader struct {
	reg         *registry.Registry
	logger      *slog.Logger
	multiselect bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger that receives per-entity failures.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithMultiselectDefault sets the multiselect flag of groups that do not
// declare one.
func WithMultiselectDefault(on bool) Option {
	return func(ld *Loader) {
		ld.multiselect = on
	}
}

// New creates a loader writing into reg.
func New(reg *registry.Registry, opts ...Option) *Loader {
	l := &Loader{
		reg:    reg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ReadFile reads and parses a tour document.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user or a parent document
	if err != nil {
		return nil, fmt.Errorf("failed to read tour document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load reads the document at path and every document it references through
// tours. Only a failure to read or parse the root document is returned as an
// error; everything else is reflected in the result.
func (l *Loader) Load(ctx context.Context, path string) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, err
	}
	doc, err := ReadFile(abs)
	if err != nil {
		return Result{}, err
	}

	visited := map[string]bool{abs: true}
	return l.loadTree(ctx, abs, doc, visited)
}

func (l *Loader) loadTree(ctx context.Context, path string, doc *Document, visited map[string]bool) (Result, error) {
	res := l.Apply(doc, path)

	var children []string
	for _, rel := range doc.Tours {
		child := rel
		if !filepath.IsAbs(child) {
			child = filepath.Join(filepath.Dir(path), rel)
		}
		child = filepath.Clean(child)
		if visited[child] {
			l.logger.Debug("skipping already loaded tour", "path", child)
			continue
		}
		visited[child] = true
		children = append(children, child)
	}
	if len(children) == 0 {
		return res, nil
	}

	// Read concurrently, apply in declared order.
	docs := make([]*Document, len(children))
	errs := make([]error, len(children))
	eg, egctx := errgroup.WithContext(ctx)
	for i, child := range children {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			docs[i], errs[i] = ReadFile(child)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return res, err
	}

	for i, child := range children {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if errs[i] != nil {
			l.logger.Warn("failed to load tour", "path", child, "error", errs[i])
			res.Succeeded = false
			res.Failed++
			continue
		}
		sub, err := l.loadTree(ctx, child, docs[i], visited)
		res.merge(sub)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

// Apply creates the entities of one document: temporal groups, spatial
// groups, vertices, then edges. A failing entity is logged and skipped.
func (l *Loader) Apply(doc *Document, name string) Result {
	res := Result{Succeeded: true, Documents: []string{name}}
	before := l.reg.Count()

	plan := Flatten(doc, l.multiselect)
	for _, err := range plan.Failures {
		l.reject(&res, err)
	}
	for _, spec := range plan.TemporalGroups {
		if _, err := l.reg.CreateTemporalGroup(spec); err != nil {
			l.reject(&res, err)
		}
	}
	for _, spec := range plan.SpatialGroups {
		if _, err := l.reg.CreateSpatialGroup(spec); err != nil {
			l.reject(&res, err)
		}
	}
	for _, spec := range plan.Vertices {
		if _, err := l.reg.CreateVertex(spec); err != nil {
			l.reject(&res, err)
		}
	}
	for _, spec := range plan.Edges {
		if _, err := l.reg.CreateEdge(spec); err != nil {
			l.reject(&res, err)
		}
	}

	res.Created = l.reg.Count() - before
	l.logger.Debug("applied tour document", "document", name, "created", res.Created, "failed", res.Failed)
	return res
}

func (l *Loader) reject(res *Result, err error) {
	res.Succeeded = false
	res.Failed++

	attrs := []any{"error", err}
	var v *core.ValidationError
	var r *core.ReferenceError
	switch {
	case errors.As(err, &v):
		attrs = append(attrs, "kind", v.Kind.String(), "id", v.ID)
	case errors.As(err, &r):
		attrs = append(attrs, "kind", r.Kind.String(), "id", r.ID)
	}
	l.logger.Warn("skipping entity", attrs...)
}
