package core

// EntityKind discriminates the things events are published for.
type EntityKind int

// Model kinds come first, viewer kinds after.
const (
	KindVertex EntityKind = iota
	KindEdge
	KindSpatialGroup
	KindTemporalGroup

	KindPoint
	KindLine
	KindLayerGroup
	KindControlGroup
	KindItem
	KindGroup
)

var kindNames = [...]string{
	KindVertex:        "vertex",
	KindEdge:          "edge",
	KindSpatialGroup:  "spatialGroup",
	KindTemporalGroup: "temporalGroup",
	KindPoint:         "point",
	KindLine:          "line",
	KindLayerGroup:    "layerGroup",
	KindControlGroup:  "controlGroup",
	KindItem:          "item",
	KindGroup:         "group",
}

func (k EntityKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Action is what happened to an entity.
type Action int

// Actions. UpdateCoordinates and UpdateHeight carry their new value in Event.Value.
const (
	ActionCreate Action = iota
	ActionDelete
	ActionUpdate
	ActionSelect
	ActionDeselect
	ActionClick
	ActionShow
	ActionHide
	ActionDrag
	ActionUpdateCoordinates
	ActionUpdateHeight
)

var actionNames = [...]string{
	ActionCreate:            "create",
	ActionDelete:            "delete",
	ActionUpdate:            "update",
	ActionSelect:            "select",
	ActionDeselect:          "deselect",
	ActionClick:             "click",
	ActionShow:              "show",
	ActionHide:              "hide",
	ActionDrag:              "drag",
	ActionUpdateCoordinates: "updateCoordinates",
	ActionUpdateHeight:      "updateHeight",
}

func (a Action) String() string {
	if a >= 0 && int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Event is one published change.
//
// Entity is the affected object (*Vertex, *Edge, a visual, ...). For deletions
// it is the last state before removal. Value carries the modifier of
// value-carrying actions such as ActionDrag or ActionUpdateCoordinates.
type Event struct {
	Kind   EntityKind
	Action Action
	ID     string
	Entity any
	Value  any
}
