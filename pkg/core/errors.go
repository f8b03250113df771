package core

import (
	"errors"
	"fmt"
)

// ErrCycle marks a temporal group nesting that would form a cycle.
var ErrCycle = errors.New("group nesting cycle")

// ValidationError reports a malformed entity spec. It is recoverable: batch
// imports log it, skip the entity and continue.
type ValidationError struct {
	Kind   EntityKind
	ID     string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s %q", e.Kind, e.ID)
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReferenceError reports an operation that needs an entity which is not registered.
type ReferenceError struct {
	Kind    EntityKind
	ID      string
	Missing string
}

func (e *ReferenceError) Error() string {
	if e.Missing == "" {
		return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s %q references missing %s", e.Kind, e.ID, e.Missing)
}

// UnsupportedOperationError reports a capability the collaborator does not have.
type UnsupportedOperationError struct {
	Op           string
	Collaborator string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Collaborator, e.Op)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsReference reports whether err wraps a *ReferenceError.
func IsReference(err error) bool {
	var r *ReferenceError
	return errors.As(err, &r)
}

// IsUnsupported reports whether err wraps an *UnsupportedOperationError.
func IsUnsupported(err error) bool {
	var u *UnsupportedOperationError
	return errors.As(err, &u)
}
