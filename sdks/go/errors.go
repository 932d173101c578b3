package meridian

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNoRoute is returned when no registered server can handle a query.
	ErrNoRoute = errors.New("no route")

	// ErrEngineUnreachable is returned when the Meridian engine cannot be
	// contacted.
	ErrEngineUnreachable = errors.New("engine unreachable")
)

// APIError is returned when the engine answers with a non-2xx status that
// does not map to a more specific error type.
type APIError struct {
	// StatusCode is the HTTP status the engine returned.
	StatusCode int
	// Message is the error message from the response body.
	Message string
}

// Error returns the error message.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("meridian [%d]: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("meridian [%d]", e.StatusCode)
}

// NoRouteError is returned when the engine finds no server or tool able to
// handle the query.
type NoRouteError struct {
	// Message explains why no route was found.
	Message string
}

// Error returns a human-readable description of the routing miss.
func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route: %s", e.Message)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrNoRoute).
func (e *NoRouteError) Is(target error) bool {
	return target == ErrNoRoute
}

// EngineUnreachableError is returned when the Meridian engine cannot be
// contacted.
type EngineUnreachableError struct {
	// Cause is the underlying transport error.
	Cause error
}

// Error returns a human-readable description of the transport failure.
func (e *EngineUnreachableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("engine unreachable: %v", e.Cause)
	}
	return "engine unreachable"
}

// Unwrap returns the underlying error cause.
func (e *EngineUnreachableError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrEngineUnreachable).
func (e *EngineUnreachableError) Is(target error) bool {
	return target == ErrEngineUnreachable
}
