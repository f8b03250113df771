package mapview

import "github.com/NiHoel/cirspecte-site/pkg/core"

// Renderer draws the container tree. The map adapter calls it after its own
// state is updated; implementations must not call back into the registry.
// A renderer may report user moves through Map.OnPointMoved, including from
// inside MovePoint.
type Renderer interface {
	Attach(kind core.EntityKind, id, parentID string)
	Detach(kind core.EntityKind, id, parentID string)
	MovePoint(vertexID string, c core.LatLon)
	SetLinePath(lineID string, path [2]core.LatLon)
	SetSelection(ids []string)
	RefreshTree()
}

type noopRenderer struct{}

func (noopRenderer) Attach(core.EntityKind, string, string) {}
func (noopRenderer) Detach(core.EntityKind, string, string) {}
func (noopRenderer) MovePoint(string, core.LatLon)          {}
func (noopRenderer) SetLinePath(string, [2]core.LatLon)     {}
func (noopRenderer) SetSelection([]string)                  {}
func (noopRenderer) RefreshTree()                           {}
