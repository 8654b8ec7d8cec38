// Package apperr defines the error kinds surfaced by lifecycle and
// storage operations: validation, conflict, not-found and illegal
// state transition. Handlers translate them to HTTP status codes.
package apperr

import "fmt"

// ValidationError reports invalid input on a named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for a field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Validationf builds a ValidationError with a formatted reason.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports that a write collides with existing state,
// such as a duplicate business key.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Resource, e.Reason)
}

// Conflict builds a ConflictError for a resource.
func Conflict(resource, reason string) error {
	return &ConflictError{Resource: resource, Reason: reason}
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NotFound builds a NotFoundError for a resource.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// StateError reports an operation that is not allowed in the entity's
// current lifecycle state.
type StateError struct {
	Entity string
	From   string
	To     string
}

func (e *StateError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("%s in state %q does not allow this operation", e.Entity, e.From)
	}
	return fmt.Sprintf("%s cannot transition from %q to %q", e.Entity, e.From, e.To)
}

// State builds a StateError for an illegal transition.
func State(entity, from, to string) error {
	return &StateError{Entity: entity, From: from, To: to}
}

// StateOp builds a StateError for an operation blocked by the current
// state rather than a transition.
func StateOp(entity, from string) error {
	return &StateError{Entity: entity, From: from}
}
