package mapview

import (
	"errors"
	"fmt"
	"slices"

	"github.com/NiHoel/cirspecte-site/pkg/core"
)

// DeriveParent returns the id of the container a visual belongs in, computed
// from the current registry state:
//
//   - a point belongs in the layer group of its vertex's spatial group;
//   - a layer group belongs in the control group of its temporal group;
//   - a control group belongs in its super group's control group, or the root.
//
// A missing model entity or relation is a *core.ReferenceError.
func (m *Map) DeriveParent(kind core.EntityKind, id string) (string, error) {
	switch kind {
	case core.KindPoint:
		v, ok := m.reg.Vertex(id)
		if !ok {
			return "", &core.ReferenceError{Kind: core.KindPoint, ID: id, Missing: "vertex " + id}
		}
		if _, ok := m.reg.SpatialGroup(v.GroupID); !ok {
			return "", &core.ReferenceError{Kind: core.KindPoint, ID: id, Missing: "spatialGroup " + v.GroupID}
		}
		return v.GroupID, nil
	case core.KindLayerGroup:
		g, ok := m.reg.SpatialGroup(id)
		if !ok {
			return "", &core.ReferenceError{Kind: core.KindLayerGroup, ID: id, Missing: "spatialGroup " + id}
		}
		if g.SuperGroup == "" {
			return RootID, nil
		}
		return g.SuperGroup, nil
	case core.KindControlGroup:
		g, ok := m.reg.TemporalGroup(id)
		if !ok {
			return "", &core.ReferenceError{Kind: core.KindControlGroup, ID: id, Missing: "temporalGroup " + id}
		}
		if g.SuperGroup == "" {
			return RootID, nil
		}
		return g.SuperGroup, nil
	}
	return "", fmt.Errorf("derive parent: unsupported kind %s", kind)
}

// UpdateParent moves a visual to its derived parent if it is attached
// elsewhere. The new parent container must already exist; otherwise the
// visual is left untouched and a *core.ReferenceError is returned.
func (m *Map) UpdateParent(kind core.EntityKind, id string) error {
	parentID, err := m.DeriveParent(kind, id)
	if err != nil {
		return err
	}

	switch kind {
	case core.KindPoint:
		p, ok := m.points[id]
		if !ok {
			return nil
		}
		if p.Parent == parentID {
			return nil
		}
		newParent, ok := m.layers[parentID]
		if !ok {
			return &core.ReferenceError{Kind: core.KindPoint, ID: id, Missing: "layerGroup " + parentID}
		}
		if old := m.layers[p.Parent]; old != nil {
			old.Points = removeID(old.Points, id)
			m.renderer.Detach(core.KindPoint, id, old.ID)
		}
		newParent.Points = append(newParent.Points, id)
		m.renderer.Attach(core.KindPoint, id, parentID)
		m.logger.Debug("point re-parented", "vertex", id, "from", p.Parent, "to", parentID)
		p.Parent = parentID

	case core.KindLayerGroup, core.KindControlGroup:
		c := m.container(kind, id)
		if c == nil {
			return nil
		}
		if c.Parent == parentID {
			return nil
		}
		newParent := m.controlOrRoot(parentID)
		if newParent == nil {
			return &core.ReferenceError{Kind: kind, ID: id, Missing: "controlGroup " + parentID}
		}
		if old := m.controlOrRoot(c.Parent); old != nil {
			detachChild(old, c)
			if !c.Hidden {
				m.renderer.Detach(kind, id, old.ID)
			}
		}
		attachChild(newParent, c)
		if !c.Hidden {
			m.renderer.Attach(kind, id, parentID)
		}
		m.logger.Debug("container re-parented", "kind", kind, "id", id, "from", c.Parent, "to", parentID)
		c.Parent = parentID
	}

	m.renderer.RefreshTree()
	m.refreshLines()
	return nil
}

func (m *Map) container(kind core.EntityKind, id string) *Container {
	switch kind {
	case core.KindLayerGroup:
		return m.layers[id]
	case core.KindControlGroup:
		if id == RootID {
			return m.root
		}
		return m.controls[id]
	}
	return nil
}

func (m *Map) controlOrRoot(id string) *Container {
	if id == RootID {
		return m.root
	}
	return m.controls[id]
}

func attachChild(parent, child *Container) {
	if child.Kind == core.KindLayerGroup {
		parent.Layers = append(parent.Layers, child.ID)
	} else {
		parent.Controls = append(parent.Controls, child.ID)
	}
}

func detachChild(parent, child *Container) {
	if child.Kind == core.KindLayerGroup {
		parent.Layers = removeID(parent.Layers, child.ID)
	} else {
		parent.Controls = removeID(parent.Controls, child.ID)
	}
}

func removeID(list []string, id string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == id })
}

// --- Containers ---

func (m *Map) createControl(id string) error {
	if _, ok := m.controls[id]; ok {
		return nil
	}
	g, ok := m.reg.TemporalGroup(id)
	if !ok {
		return &core.ReferenceError{Kind: core.KindControlGroup, ID: id, Missing: "temporalGroup " + id}
	}
	parentID, err := m.DeriveParent(core.KindControlGroup, id)
	if err != nil {
		return err
	}
	parent := m.controlOrRoot(parentID)
	if parent == nil {
		return &core.ReferenceError{Kind: core.KindControlGroup, ID: id, Missing: "controlGroup " + parentID}
	}

	c := &Container{ID: id, Kind: core.KindControlGroup, Title: g.Title, Parent: parentID}
	m.controls[id] = c
	attachChild(parent, c)
	m.renderer.Attach(core.KindControlGroup, id, parentID)
	return m.emit(core.KindControlGroup, core.ActionCreate, id, c, nil)
}

func (m *Map) createLayer(id string) error {
	if _, ok := m.layers[id]; ok {
		return nil
	}
	g, ok := m.reg.SpatialGroup(id)
	if !ok {
		return &core.ReferenceError{Kind: core.KindLayerGroup, ID: id, Missing: "spatialGroup " + id}
	}
	parentID, err := m.DeriveParent(core.KindLayerGroup, id)
	if err != nil {
		return err
	}
	parent := m.controlOrRoot(parentID)
	if parent == nil {
		return &core.ReferenceError{Kind: core.KindLayerGroup, ID: id, Missing: "controlGroup " + parentID}
	}

	c := &Container{ID: id, Kind: core.KindLayerGroup, Title: g.Name, Parent: parentID}
	m.layers[id] = c
	attachChild(parent, c)
	m.renderer.Attach(core.KindLayerGroup, id, parentID)
	return m.emit(core.KindLayerGroup, core.ActionCreate, id, c, nil)
}

// deleteControl removes a control group after its nested control groups and
// layer groups.
func (m *Map) deleteControl(id string) error {
	c, ok := m.controls[id]
	if !ok {
		return nil
	}
	var errs []error
	for _, sub := range slices.Clone(c.Controls) {
		errs = append(errs, m.deleteControl(sub))
	}
	for _, layer := range slices.Clone(c.Layers) {
		errs = append(errs, m.deleteLayer(layer))
	}
	if parent := m.controlOrRoot(c.Parent); parent != nil {
		detachChild(parent, c)
	}
	m.renderer.Detach(core.KindControlGroup, id, c.Parent)
	delete(m.controls, id)
	errs = append(errs, m.emit(core.KindControlGroup, core.ActionDelete, id, c, nil))
	return errors.Join(errs...)
}

// deleteLayer removes a layer group after the points it holds.
func (m *Map) deleteLayer(id string) error {
	c, ok := m.layers[id]
	if !ok {
		return nil
	}
	var errs []error
	for _, p := range slices.Clone(c.Points) {
		errs = append(errs, m.deletePoint(p))
	}
	if parent := m.controlOrRoot(c.Parent); parent != nil {
		detachChild(parent, c)
	}
	m.renderer.Detach(core.KindLayerGroup, id, c.Parent)
	delete(m.layers, id)
	errs = append(errs, m.emit(core.KindLayerGroup, core.ActionDelete, id, c, nil))
	return errors.Join(errs...)
}

// --- Visibility ---

// Show re-attaches a hidden layer group or control group to its parent.
func (m *Map) Show(containerID string) error {
	return m.setHidden(containerID, false)
}

// Hide detaches a layer group or control group from its parent without
// deleting it. Lines touching points below it are detached as well.
func (m *Map) Hide(containerID string) error {
	return m.setHidden(containerID, true)
}

func (m *Map) setHidden(id string, hidden bool) error {
	kind := core.KindLayerGroup
	c := m.layers[id]
	if c == nil {
		kind = core.KindControlGroup
		c = m.controls[id]
	}
	if c == nil {
		return &core.ReferenceError{Kind: core.KindLayerGroup, ID: id}
	}
	if c.Hidden == hidden {
		return nil
	}

	c.Hidden = hidden
	action := core.ActionShow
	if hidden {
		m.renderer.Detach(kind, id, c.Parent)
		action = core.ActionHide
	} else {
		m.renderer.Attach(kind, id, c.Parent)
	}
	m.refreshLines()
	return m.emit(kind, action, id, c, nil)
}

// Displayed reports whether a visual is currently visible: every container
// from it up to the root must be attached. Lines are displayed when attached
// to the line container.
func (m *Map) Displayed(id string) bool {
	if id == RootID || id == LinesID {
		return true
	}
	if l, ok := m.lines[id]; ok {
		return l.Attached
	}
	if p, ok := m.points[id]; ok {
		return m.pointDisplayed(p)
	}
	if c, ok := m.layers[id]; ok {
		return m.containerDisplayed(c)
	}
	return m.containerDisplayed(m.controls[id])
}

func (m *Map) pointDisplayed(p *Point) bool {
	return m.containerDisplayed(m.layers[p.Parent])
}

func (m *Map) containerDisplayed(c *Container) bool {
	for seen := 0; c != nil; seen++ {
		if c.Hidden || seen > len(m.controls)+len(m.layers)+1 {
			return false
		}
		if c.Parent == RootID {
			return true
		}
		c = m.controls[c.Parent]
	}
	return false
}

// --- Tree ---

// Node is one entry of the rendered container tree.
type Node struct {
	Kind     core.EntityKind
	ID       string
	Title    string
	Hidden   bool
	Children []Node
}

// Tree returns the container tree below the root. Control groups come before
// layer groups; the shared line container is the last child of the root.
func (m *Map) Tree() Node {
	root := m.containerNode(m.root)
	root.Kind = core.KindControlGroup
	lines := Node{Kind: core.KindControlGroup, ID: LinesID}
	for _, l := range m.Lines() {
		if l.Attached {
			lines.Children = append(lines.Children, Node{Kind: core.KindLine, ID: l.ID, Title: l.From + " - " + l.To})
		}
	}
	root.Children = append(root.Children, lines)
	return root
}

func (m *Map) containerNode(c *Container) Node {
	n := Node{Kind: c.Kind, ID: c.ID, Title: c.Title, Hidden: c.Hidden}
	for _, id := range c.Controls {
		if sub := m.controls[id]; sub != nil {
			n.Children = append(n.Children, m.containerNode(sub))
		}
	}
	for _, id := range c.Layers {
		if sub := m.layers[id]; sub != nil {
			n.Children = append(n.Children, m.containerNode(sub))
		}
	}
	for _, id := range c.Points {
		n.Children = append(n.Children, Node{Kind: core.KindPoint, ID: id})
	}
	return n
}
