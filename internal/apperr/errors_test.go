package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"parse", &ParseError{Kind: "invoice", Number: "INV8491"}, "sequence_corrupt", http.StatusInternalServerError},
		{"constraint", &ConstraintViolation{Kind: "invoice", Number: "ECX-793"}, "number_conflict", http.StatusConflict},
		{"validation", &ValidationError{Violations: map[string]string{"client_id": "required"}}, "validation_failed", http.StatusUnprocessableEntity},
		{"not found", NotFound("client", 7), "not_found", http.StatusNotFound},
		{"client in use", fmt.Errorf("delete client 3: %w", ErrClientInUse), "client_in_use", http.StatusConflict},
		{"transition", ErrInvalidTransition, "invalid_transition", http.StatusConflict},
		{"other", errors.New("boom"), "internal_error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("create document: %w", tt.err)
			assert.Equal(t, tt.code, Code(wrapped))
			assert.Equal(t, tt.status, HTTPStatus(wrapped))
		})
	}
}

func TestNewValidation(t *testing.T) {
	assert.NoError(t, NewValidation(nil))
	assert.NoError(t, NewValidation(map[string]string{}))

	err := NewValidation(map[string]string{"items": "required"})
	assert.Equal(t, map[string]string{"items": "required"}, Details(err))
}

func TestParseErrorUnwrap(t *testing.T) {
	inner := errors.New("strconv: out of range")
	err := &ParseError{Kind: "quote", Number: "99999999999999999999", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "quote")
}
