// Package loader reads tour documents and feeds them into the registry.
//
// A tour document is JSON or YAML:
//
//	temporalGroups:
//	  - id: "2019"
//	    title: Summer 2019
//	    subGroups:
//	      - type: spatial
//	        id: square
//	        name: Market square
//	        vertices:
//	          - id: v1
//	            coordinates: [49.0094, 8.4044]
//	            timestamp: 2019-05-01T10:00:00Z
//	            path: img/v1.jpg
//	            outgoingEdges:
//	              - to: v2
//	                type: route
//	tours:
//	  - district/tour.yaml
//
// Top-level spatialGroups name their temporal group with superGroup and
// top-level vertices name their spatial group with spatialGroup.
package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Group types accepted in subGroups.
const (
	TypeTemporal = "temporal"
	TypeSpatial  = "spatial"
)

// Document is one parsed tour file.
type Document struct {
	TemporalGroups []GroupDoc  `yaml:"temporalGroups"`
	SpatialGroups  []GroupDoc  `yaml:"spatialGroups"`
	Vertices       []VertexDoc `yaml:"vertices"`
	Tours          []string    `yaml:"tours"`
}

// GroupDoc is a temporal or spatial group with its nested children.
type GroupDoc struct {
	Type        string      `yaml:"type"`
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Name        string      `yaml:"name"`
	SuperGroup  string      `yaml:"superGroup"`
	Multiselect *bool       `yaml:"multiselect"`
	SubGroups   []GroupDoc  `yaml:"subGroups"`
	Vertices    []VertexDoc `yaml:"vertices"`
}

// VertexDoc is a vertex with its outgoing edges.
type VertexDoc struct {
	ID            string    `yaml:"id"`
	Coordinates   []float64 `yaml:"coordinates"`
	Timestamp     Timestamp `yaml:"timestamp"`
	Timeslot      Timestamp `yaml:"timeslot"`
	Path          string    `yaml:"path"`
	SpatialGroup  string    `yaml:"spatialGroup"`
	OutgoingEdges []EdgeDoc `yaml:"outgoingEdges"`
}

// EdgeDoc is an edge leaving the enclosing vertex.
type EdgeDoc struct {
	ID   string `yaml:"id"`
	To   string `yaml:"to"`
	Type string `yaml:"type"`
}

// Parse decodes a JSON or YAML tour document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tour document: %w", err)
	}
	return &doc, nil
}

// Timestamp is the raw text of a timestamp field. It is parsed when the
// document is flattened, so a malformed value rejects only its own vertex.
// Accepted forms are RFC 3339, a few shorter date layouts and Unix
// milliseconds.
type Timestamp struct {
	Raw string
	// nonScalar is set when the field held a sequence or mapping.
	nonScalar bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// UnmarshalYAML implements yaml.Unmarshaler. It never fails.
func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		t.nonScalar = true
		return nil
	}
	t.Raw = value.Value
	return nil
}

// IsSet reports whether the field was present in the document.
func (t Timestamp) IsSet() bool {
	return t.nonScalar || strings.TrimSpace(t.Raw) != ""
}

// Time parses the raw text. An unset timestamp is the zero time.
func (t Timestamp) Time() (time.Time, error) {
	if t.nonScalar {
		return time.Time{}, errors.New("timestamp must be a scalar")
	}
	return ParseTimestamp(t.Raw)
}

// ParseTimestamp parses the textual forms accepted in tour documents.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
