package loader

import (
	"fmt"

	"github.com/NiHoel/cirspecte-site/internal/dag"
	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// Plan is a document flattened into creation requests, in creation order.
// Failures holds the entities that could not even be turned into a request.
type Plan struct {
	TemporalGroups []core.TemporalGroupSpec
	SpatialGroups  []core.SpatialGroupSpec
	Vertices       []core.VertexSpec
	Edges          []core.EdgeSpec
	Failures       []error
}

// Flatten turns the nested document into flat specs. Temporal groups are
// ordered so super groups come first; groups caught in a nesting cycle are
// reported as failures together with everything nested below them.
func Flatten(doc *Document, multiselectDefault bool) *Plan {
	f := &flattener{plan: &Plan{}, multiselect: multiselectDefault}

	for _, g := range doc.TemporalGroups {
		f.group(g, TypeTemporal, g.SuperGroup)
	}
	for _, g := range doc.SpatialGroups {
		f.group(g, TypeSpatial, g.SuperGroup)
	}
	for _, v := range doc.Vertices {
		f.vertex(v, v.SpatialGroup)
	}

	f.orderTemporal()
	return f.plan
}

type flattener struct {
	plan        *Plan
	multiselect bool
}

func (f *flattener) fail(kind core.EntityKind, id, field, reason string) {
	f.plan.Failures = append(f.plan.Failures, &core.ValidationError{Kind: kind, ID: id, Field: field, Reason: reason})
}

func (f *flattener) multiselectOf(g GroupDoc) bool {
	if g.Multiselect != nil {
		return *g.Multiselect
	}
	return f.multiselect
}

// group records g and its children. fallback is the group type implied by
// the list g was found in.
func (f *flattener) group(g GroupDoc, fallback, superGroup string) {
	typ := g.Type
	if typ == "" {
		typ = fallback
	}
	if typ == "" {
		typ = TypeSpatial
		if len(g.SubGroups) > 0 {
			typ = TypeTemporal
		}
	}

	switch typ {
	case TypeTemporal:
		if len(g.Vertices) > 0 {
			f.fail(core.KindTemporalGroup, g.ID, "vertices", "temporal groups hold subGroups, not vertices")
			return
		}
		title := g.Title
		if title == "" {
			title = g.Name
		}
		f.plan.TemporalGroups = append(f.plan.TemporalGroups, core.TemporalGroupSpec{
			ID:          g.ID,
			Title:       title,
			SuperGroup:  superGroup,
			Multiselect: f.multiselectOf(g),
		})
		for _, sub := range g.SubGroups {
			f.group(sub, "", g.ID)
		}

	case TypeSpatial:
		if len(g.SubGroups) > 0 {
			f.fail(core.KindSpatialGroup, g.ID, "subGroups", "spatial groups cannot nest groups")
			return
		}
		name := g.Name
		if name == "" {
			name = g.Title
		}
		f.plan.SpatialGroups = append(f.plan.SpatialGroups, core.SpatialGroupSpec{
			ID:          g.ID,
			Name:        name,
			SuperGroup:  superGroup,
			Multiselect: f.multiselectOf(g),
		})
		for _, v := range g.Vertices {
			f.vertex(v, g.ID)
		}

	default:
		f.fail(core.KindSpatialGroup, g.ID, "type", fmt.Sprintf("unknown group type %q", typ))
	}
}

func (f *flattener) vertex(v VertexDoc, groupID string) {
	if len(v.Coordinates) != 2 {
		f.fail(core.KindVertex, v.ID, "coordinates", fmt.Sprintf("want [lat, lon], got %d values", len(v.Coordinates)))
		return
	}
	field, raw := "timestamp", v.Timestamp
	if !raw.IsSet() {
		field, raw = "timeslot", v.Timeslot
	}
	ts, err := raw.Time()
	if err != nil {
		f.plan.Failures = append(f.plan.Failures, &core.ValidationError{Kind: core.KindVertex, ID: v.ID, Field: field, Err: err})
		return
	}
	f.plan.Vertices = append(f.plan.Vertices, core.VertexSpec{
		ID:          v.ID,
		Coordinates: core.LatLon{v.Coordinates[0], v.Coordinates[1]},
		Timestamp:   ts,
		Path:        v.Path,
		GroupID:     groupID,
	})
	for _, e := range v.OutgoingEdges {
		f.plan.Edges = append(f.plan.Edges, core.EdgeSpec{
			ID:   e.ID,
			From: v.ID,
			To:   e.To,
			Type: core.EdgeType(e.Type),
		})
	}
}

// orderTemporal sorts temporal groups parent-first. Super groups declared in
// other documents are not part of the graph and impose no order.
func (f *flattener) orderTemporal() {
	g := dag.NewGraph()
	for _, spec := range f.plan.TemporalGroups {
		g.AddNode(spec.ID, spec)
	}
	var selfNested []string
	for _, spec := range f.plan.TemporalGroups {
		if spec.SuperGroup == "" {
			continue
		}
		if _, ok := g.GetNode(spec.SuperGroup); !ok {
			continue
		}
		// Both nodes exist, so only a group naming itself can fail here.
		if err := g.AddEdge(spec.SuperGroup, spec.ID); err != nil {
			selfNested = append(selfNested, spec.ID)
		}
	}
	for _, id := range selfNested {
		if _, ok := g.GetNode(id); ok {
			f.dropCycle(g, []string{id})
		}
	}

	for {
		cyclic, path := g.HasCycle()
		if !cyclic {
			break
		}
		f.dropCycle(g, path)
	}

	sorted, err := g.TopologicalSort()
	if err != nil {
		return
	}
	ordered := make([]core.TemporalGroupSpec, 0, len(sorted))
	for _, n := range sorted {
		ordered = append(ordered, n.Data.(core.TemporalGroupSpec))
	}
	f.plan.TemporalGroups = ordered
}

// dropCycle rejects the groups on a nesting cycle and everything nested
// below them.
func (f *flattener) dropCycle(g *dag.Graph, path []string) {
	dropped := g.Descendants(path)
	for _, id := range dropped {
		f.plan.Failures = append(f.plan.Failures, &core.ValidationError{
			Kind:   core.KindTemporalGroup,
			ID:     id,
			Field:  "superGroup",
			Reason: fmt.Sprintf("nesting cycle %v", path),
			Err:    core.ErrCycle,
		})
	}
	g.Remove(dropped)
}
