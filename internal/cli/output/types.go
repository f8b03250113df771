package output

import "time"

// GroupInfo describes a temporal or spatial group in JSON output.
type GroupInfo struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	SuperGroup  string `json:"super_group,omitempty"`
	Depth       int    `json:"depth"`
	Multiselect bool   `json:"multiselect"`
	Children    int    `json:"children"`
}

// LoadSummary describes the outcome of loading a tour.
type LoadSummary struct {
	Succeeded bool     `json:"succeeded"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	Documents []string `json:"documents"`
}

// InspectOutput is the JSON output of the inspect command.
type InspectOutput struct {
	Load     LoadSummary `json:"load"`
	Groups   []GroupInfo `json:"groups"`
	Vertices int         `json:"vertices"`
	Edges    int         `json:"edges"`
}

// TreeNode is one container or point of the map tree in JSON output.
type TreeNode struct {
	Kind     string     `json:"kind"`
	ID       string     `json:"id"`
	Title    string     `json:"title,omitempty"`
	Hidden   bool       `json:"hidden,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// TimelineItem is one displayed timeline entry in JSON output.
type TimelineItem struct {
	ID      string    `json:"id"`
	Group   string    `json:"group"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end,omitzero"`
	Members []string  `json:"members,omitempty"`
}

// TimelineOutput is the JSON output of the timeline command.
type TimelineOutput struct {
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	MsPerPixel float64        `json:"ms_per_pixel"`
	Critical   string         `json:"critical"`
	Items      []TimelineItem `json:"items"`
}

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	ID             string    `json:"id"`
	SavedAt        time.Time `json:"saved_at"`
	TemporalGroups int       `json:"temporal_groups"`
	SpatialGroups  int       `json:"spatial_groups"`
	Vertices       int       `json:"vertices"`
	Edges          int       `json:"edges"`
}
