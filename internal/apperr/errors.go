// Package apperr holds the error taxonomy shared by the billing core, the
// repositories and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrClientInUse is returned when deleting a client that quotes or invoices still reference.
	ErrClientInUse = errors.New("client_in_use")
	// ErrInvalidTransition is returned when a status change is not allowed for the document.
	ErrInvalidTransition = errors.New("invalid_transition")
)

// ParseError reports a stored document number that does not match the
// numbering format of its kind. Numbering must stop rather than guess.
type ParseError struct {
	Kind   string
	Number string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s number %q: %v", e.Kind, e.Number, e.Err)
	}
	return fmt.Sprintf("malformed %s number %q", e.Kind, e.Number)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConstraintViolation reports that a document number is already taken for its kind.
type ConstraintViolation struct {
	Kind   string
	Number string
	Err    error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s number %q already exists", e.Kind, e.Number)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// ValidationError carries field level violations (field -> code).
type ValidationError struct {
	Violations map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Violations))
}

// NewValidation returns nil when there are no violations.
func NewValidation(v map[string]string) error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Code maps an error to the snake_case code used in JSON bodies and translations.
func Code(err error) string {
	var (
		pe *ParseError
		cv *ConstraintViolation
		ve *ValidationError
		nf *NotFoundError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "validation_failed"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &cv):
		return "number_conflict"
	case errors.As(err, &pe):
		return "sequence_corrupt"
	case errors.Is(err, ErrClientInUse):
		return "client_in_use"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	switch Code(err) {
	case "":
		return http.StatusOK
	case "validation_failed":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	case "number_conflict", "client_in_use", "invalid_transition":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Details returns the payload attached to the JSON error body, if any.
func Details(err error) any {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}
