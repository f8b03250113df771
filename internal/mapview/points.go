package mapview

import (
	"errors"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

func (m *Map) createPoint(vertexID string) error {
	if _, ok := m.points[vertexID]; ok {
		return nil
	}
	v, ok := m.reg.Vertex(vertexID)
	if !ok {
		return &core.ReferenceError{Kind: core.KindPoint, ID: vertexID, Missing: "vertex " + vertexID}
	}
	parentID, err := m.DeriveParent(core.KindPoint, vertexID)
	if err != nil {
		return err
	}
	layer, ok := m.layers[parentID]
	if !ok {
		return &core.ReferenceError{Kind: core.KindPoint, ID: vertexID, Missing: "layerGroup " + parentID}
	}

	p := &Point{VertexID: vertexID, Coordinates: v.Coordinates, Parent: parentID}
	m.points[vertexID] = p
	layer.Points = append(layer.Points, vertexID)
	m.renderer.Attach(core.KindPoint, vertexID, parentID)
	return m.emit(core.KindPoint, core.ActionCreate, vertexID, p, nil)
}

// deletePoint removes every line touching the point, then the point.
func (m *Map) deletePoint(vertexID string) error {
	p, ok := m.points[vertexID]
	if !ok {
		return nil
	}
	var errs []error
	for _, id := range m.incidentLines(vertexID) {
		errs = append(errs, m.removeLine(id))
	}
	if layer := m.layers[p.Parent]; layer != nil {
		layer.Points = removeID(layer.Points, vertexID)
	}
	m.renderer.Detach(core.KindPoint, vertexID, p.Parent)
	delete(m.points, vertexID)
	errs = append(errs, m.emit(core.KindPoint, core.ActionDelete, vertexID, p, nil))
	return errors.Join(errs...)
}

func (m *Map) incidentLines(vertexID string) []string {
	var ids []string
	for _, id := range sortedKeys(m.lines) {
		l := m.lines[id]
		if l.From == vertexID || l.To == vertexID {
			ids = append(ids, id)
		}
	}
	return ids
}

// UpdatePointCoordinates copies the vertex coordinates from the registry into
// its point when they differ, then redraws every line touching it. Move
// notifications the renderer raises during the write are ignored.
func (m *Map) UpdatePointCoordinates(vertexID string) error {
	p, ok := m.points[vertexID]
	if !ok {
		return nil
	}
	v, ok := m.reg.Vertex(vertexID)
	if !ok {
		return &core.ReferenceError{Kind: core.KindPoint, ID: vertexID, Missing: "vertex " + vertexID}
	}
	if p.Coordinates.Equal(v.Coordinates) {
		return nil
	}

	p.Coordinates = v.Coordinates
	m.movePoint(vertexID, v.Coordinates)

	m.redrawLines(vertexID)
	return nil
}

// movePoint hands a programmatic move to the renderer with the reentrancy
// guard set, so the renderer's echo is not taken for a drag.
func (m *Map) movePoint(vertexID string, c core.LatLon) {
	m.writing = true
	defer func() { m.writing = false }()
	m.renderer.MovePoint(vertexID, c)
}

// OnPointMoved is called by the renderer when a point was dragged to c. The
// new position is published as a Point/Drag event carrying c; the registry is
// updated by whoever handles that event.
func (m *Map) OnPointMoved(vertexID string, c core.LatLon) error {
	if m.writing {
		return nil
	}
	p, ok := m.points[vertexID]
	if !ok {
		return &core.ReferenceError{Kind: core.KindPoint, ID: vertexID}
	}
	if p.Coordinates.Equal(c) {
		return nil
	}
	p.Coordinates = c
	m.redrawLines(vertexID)
	return m.emit(core.KindPoint, core.ActionDrag, vertexID, p, c)
}

// --- Lines ---

func (m *Map) createLine(edgeID string) error {
	if _, ok := m.lineOf[edgeID]; ok {
		return nil
	}
	e, ok := m.reg.Edge(edgeID)
	if !ok {
		return &core.ReferenceError{Kind: core.KindLine, ID: edgeID, Missing: "edge " + edgeID}
	}
	if e.Opposite != "" {
		if shared, ok := m.lineOf[e.Opposite]; ok {
			l := m.lines[shared]
			l.Edges = append(l.Edges, edgeID)
			m.lineOf[edgeID] = shared
			return nil
		}
	}

	l := &Line{ID: edgeID, Edges: []string{edgeID}, From: e.From, To: e.To, Type: e.Type}
	m.lines[l.ID] = l
	m.lineOf[edgeID] = l.ID
	m.updateLine(l)
	return m.emit(core.KindLine, core.ActionCreate, l.ID, l, nil)
}

// deleteEdgeLine removes the line of a deleted edge. A line shared with the
// opposite edge is deleted once and the opposite edge's reference to it is
// cleared with it.
func (m *Map) deleteEdgeLine(edgeID string) error {
	lineID, ok := m.lineOf[edgeID]
	if !ok {
		return nil
	}
	return m.removeLine(lineID)
}

func (m *Map) removeLine(lineID string) error {
	l, ok := m.lines[lineID]
	if !ok {
		return nil
	}
	for _, id := range l.Edges {
		delete(m.lineOf, id)
	}
	if l.Attached {
		m.renderer.Detach(core.KindLine, lineID, LinesID)
	}
	delete(m.lines, lineID)
	return m.emit(core.KindLine, core.ActionDelete, lineID, l, nil)
}

// updateLine recomputes geometry and attachment. A line hangs in the line
// container only while both end points are displayed.
func (m *Map) updateLine(l *Line) {
	from, okFrom := m.points[l.From]
	to, okTo := m.points[l.To]
	if okFrom && okTo {
		path := [2]core.LatLon{from.Coordinates, to.Coordinates}
		if path != l.Path {
			l.Path = path
			m.renderer.SetLinePath(l.ID, path)
		}
	}

	visible := okFrom && okTo && m.pointDisplayed(from) && m.pointDisplayed(to)
	switch {
	case visible && !l.Attached:
		l.Attached = true
		m.renderer.Attach(core.KindLine, l.ID, LinesID)
	case !visible && l.Attached:
		l.Attached = false
		m.renderer.Detach(core.KindLine, l.ID, LinesID)
	}
}

func (m *Map) redrawLines(vertexID string) {
	for _, id := range m.incidentLines(vertexID) {
		m.updateLine(m.lines[id])
	}
}

func (m *Map) refreshLines() {
	for _, id := range sortedKeys(m.lines) {
		m.updateLine(m.lines[id])
	}
}
