package core

import (
	"slices"
	"time"
)

// LatLon is a [latitude, longitude] pair in degrees.
type LatLon [2]float64

// Lat returns the latitude.
func (c LatLon) Lat() float64 { return c[0] }

// Lon returns the longitude.
func (c LatLon) Lon() float64 { return c[1] }

// Equal reports whether both pairs are identical element by element.
func (c LatLon) Equal(other LatLon) bool {
	return c[0] == other[0] && c[1] == other[1]
}

// Valid reports whether the pair lies inside the WGS84 range.
func (c LatLon) Valid() bool {
	return c[0] >= -90 && c[0] <= 90 && c[1] >= -180 && c[1] <= 180
}

// EdgeType classifies the connection between two vertices.
type EdgeType string

// Edge types understood by the viewers.
const (
	EdgeRoute    EdgeType = "route"
	EdgeTemporal EdgeType = "temporal"
	EdgeLandmark EdgeType = "landmark"
	EdgeTemp     EdgeType = "temp"
)

// Valid reports whether t is a known edge type.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeRoute, EdgeTemporal, EdgeLandmark, EdgeTemp:
		return true
	}
	return false
}

// EdgeID returns the default identifier of the edge from → to.
func EdgeID(from, to string) string {
	return from + "->" + to
}

// Vertex is a panorama captured at one place and time.
type Vertex struct {
	ID          string
	Coordinates LatLon
	Timestamp   time.Time
	Path        string
	// GroupID is the owning spatial group. Always set on a registered vertex.
	GroupID string
	// Outgoing holds edge ids in creation order without duplicates.
	Outgoing []string
}

// Edge is a directed connection between two vertices.
type Edge struct {
	ID   string
	From string
	To   string
	Type EdgeType
	// Opposite is the id of the reverse edge of a bidirectional pair, if any.
	Opposite string
}

// SpatialGroup clusters co-located vertices inside one temporal group.
type SpatialGroup struct {
	ID          string
	Name        string
	SuperGroup  string
	Vertices    []string
	Multiselect bool
	Depth       int
}

// TemporalGroup clusters spatial groups by time. Temporal groups nest into a tree.
type TemporalGroup struct {
	ID            string
	Title         string
	SuperGroup    string
	SubGroups     []string
	SpatialGroups []string
	Multiselect   bool
	Depth         int
}

// VertexSpec is the flattened creation request for a vertex.
type VertexSpec struct {
	ID          string
	Coordinates LatLon
	Timestamp   time.Time
	Path        string
	GroupID     string
}

// EdgeSpec is the flattened creation request for an edge. An empty ID
// defaults to EdgeID(From, To); an empty Type defaults to EdgeRoute.
type EdgeSpec struct {
	ID   string
	From string
	To   string
	Type EdgeType
}

// SpatialGroupSpec is the flattened creation request for a spatial group.
type SpatialGroupSpec struct {
	ID          string
	Name        string
	SuperGroup  string
	Multiselect bool
}

// TemporalGroupSpec is the flattened creation request for a temporal group.
// SuperGroup is empty for roots.
type TemporalGroupSpec struct {
	ID          string
	Title       string
	SuperGroup  string
	Multiselect bool
}

// Clone returns a deep copy of v.
func (v *Vertex) Clone() *Vertex {
	c := *v
	c.Outgoing = slices.Clone(v.Outgoing)
	return &c
}

// Clone returns a deep copy of g.
func (g *SpatialGroup) Clone() *SpatialGroup {
	c := *g
	c.Vertices = slices.Clone(g.Vertices)
	return &c
}

// Clone returns a deep copy of g.
func (g *TemporalGroup) Clone() *TemporalGroup {
	c := *g
	c.SubGroups = slices.Clone(g.SubGroups)
	c.SpatialGroups = slices.Clone(g.SpatialGroups)
	return &c
}

// Entity is implemented by the four registry entity types. Switch on the
// concrete type (or on EntityKind) to dispatch per kind.
type Entity interface {
	EntityID() string
	EntityKind() EntityKind
}

func (v *Vertex) EntityID() string              { return v.ID }
func (v *Vertex) EntityKind() EntityKind        { return KindVertex }
func (e *Edge) EntityID() string                { return e.ID }
func (e *Edge) EntityKind() EntityKind          { return KindEdge }
func (g *SpatialGroup) EntityID() string        { return g.ID }
func (g *SpatialGroup) EntityKind() EntityKind  { return KindSpatialGroup }
func (g *TemporalGroup) EntityID() string       { return g.ID }
func (g *TemporalGroup) EntityKind() EntityKind { return KindTemporalGroup }
