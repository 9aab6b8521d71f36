package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface lets handlers translate domain errors
// without enumerating every concrete type.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrCycle        = errors.New("cycle detected")
	ErrUnresolvable = errors.New("unresolvable reference")
)

// NotFoundError reports a reference that did not resolve, together with the
// resolution strategies that were attempted, so callers can act on the
// failure without re-deriving state.
type NotFoundError struct {
	Ref       string   // the original reference as given by the caller
	Attempted []string // resolution strategies tried, in order
}

func (e *NotFoundError) Error() string {
	if len(e.Attempted) == 0 {
		return fmt.Sprintf("reference %q not found", e.Ref)
	}
	return fmt.Sprintf("reference %q not found (attempted: %s)", e.Ref, strings.Join(e.Attempted, ", "))
}

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// Is allows errors.Is() to match against ErrNotFound
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports bad metadata shape. Fields names every offending
// field; the operation was refused before any state changed.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (fields: %s)", e.Message, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError represents a uniqueness violation (duplicate URI, duplicate
// collection member) with details about the existing resource.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, collection, member)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// CycleError reports a refused structural mutation that would have made a
// collection its own transitive parent.
type CycleError struct {
	CollectionID string
	ParentID     string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("setting parent %s on collection %s would create a cycle", e.ParentID, e.CollectionID)
}

func (e *CycleError) StatusCode() int { return http.StatusConflict }

func (e *CycleError) Is(target error) bool { return target == ErrCycle }
