package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Handlers depend on this interface rather than on the concrete types.
type HTTPError interface {
	error
	StatusCode() int
	Kind() string
}

// Domain error types implementing HTTPError
type (
	// NotFoundError indicates an unknown document or revision
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates the caller lacks role or reviewer standing
	ForbiddenError struct {
		Message string
	}

	// StateError indicates an operation that is illegal in the document's
	// current lifecycle status, e.g. editing a finalized document.
	StateError struct {
		Message string
	}

	// ReferenceError indicates a delete blocked by live references,
	// e.g. a template still used by a report.
	ReferenceError struct {
		Message string
	}

	// MalformedOutputError indicates generated text so degenerate that not
	// even the single-section fallback could be built (e.g. empty output).
	MalformedOutputError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string        { return e.Message }
func (e *ValidationError) Error() string      { return e.Message }
func (e *UnauthorizedError) Error() string    { return e.Message }
func (e *ForbiddenError) Error() string       { return e.Message }
func (e *StateError) Error() string           { return e.Message }
func (e *ReferenceError) Error() string       { return e.Message }
func (e *MalformedOutputError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int        { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int      { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int    { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int       { return http.StatusForbidden }
func (e *StateError) StatusCode() int           { return http.StatusConflict }
func (e *ReferenceError) StatusCode() int       { return http.StatusConflict }
func (e *MalformedOutputError) StatusCode() int { return http.StatusUnprocessableEntity }

func (e *NotFoundError) Kind() string        { return "not_found" }
func (e *ValidationError) Kind() string      { return "validation" }
func (e *UnauthorizedError) Kind() string    { return "unauthorized" }
func (e *ForbiddenError) Kind() string       { return "forbidden" }
func (e *StateError) Kind() string           { return "invalid_state_transition" }
func (e *ReferenceError) Kind() string       { return "referential_conflict" }
func (e *MalformedOutputError) Kind() string { return "malformed_generation_output" }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// GenerationError indicates an upstream provider failure: transport error,
// authentication failure, timeout, or a non-2xx response. UpstreamStatus
// and Body (truncated) are kept for diagnostics; credentials never appear
// in either.
type GenerationError struct {
	Provider       string
	Message        string
	UpstreamStatus int    // 0 when the request never completed
	Body           string // truncated upstream body, may be empty
}

func (e *GenerationError) Error() string {
	if e.UpstreamStatus != 0 {
		return fmt.Sprintf("provider %s unavailable (upstream status %d): %s", e.Provider, e.UpstreamStatus, e.Message)
	}
	return fmt.Sprintf("provider %s unavailable: %s", e.Provider, e.Message)
}

func (e *GenerationError) StatusCode() int { return http.StatusBadGateway }
func (e *GenerationError) Kind() string    { return "generation_unavailable" }
