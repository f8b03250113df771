// Package core defines the shared language of the tour graph.
//
// This package contains:
//   - Domain entities (Vertex, Edge, SpatialGroup, TemporalGroup)
//   - Event vocabulary (EntityKind, Action, Event)
//   - Error taxonomy (ValidationError, ReferenceError, UnsupportedOperationError)
//   - Service interfaces (Store)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
