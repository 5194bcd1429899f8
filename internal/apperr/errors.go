// Package apperr defines the error kinds shared across the service.
// Handlers translate these into stable response codes; nothing else
// should inspect error strings.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateSlug       = errors.New("slug already exists")
	ErrInvalidSlug         = errors.New("invalid slug")
	ErrNotWhitelisted      = errors.New("resource not whitelisted")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRateLimited         = errors.New("rate limited")
	ErrMisconfiguredSecret = errors.New("admin secret not configured")
	ErrPersistence         = errors.New("persistence failure")
)

// Persistence wraps an I/O error so callers can match it with
// errors.Is(err, ErrPersistence) while logs keep the full cause.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// ValidationError carries field-level messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation builds a ValidationError for a single field.
func Validation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
