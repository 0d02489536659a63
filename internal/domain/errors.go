package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnknownUser is returned when a write references a user that does not exist.
	ErrUnknownUser = &StatusError{Status: http.StatusBadRequest, Message: "unknown userId"}
	// ErrRouteNotFound is reported for requests that match no route.
	ErrRouteNotFound = &StatusError{Status: http.StatusNotFound, Message: "not found"}
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// RequiredError builds the message used when a required field is missing.
func RequiredError(field string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("Path `%s` is required.", field)}
}

// CastError builds the message used when a value cannot be coerced to the field's type.
func CastError(field, kind, value string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Cast to %s failed for value %q at path %q", kind, value, field),
	}
}

// ValidationErrors collects field failures in declaration order.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// First returns the earliest reported failure.
func (v ValidationErrors) First() ValidationError {
	if len(v) == 0 {
		return ValidationError{}
	}
	return v[0]
}

// OrNil returns nil when nothing failed so callers can return it directly.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// StatusError carries an HTTP status alongside its message.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// AsValidation extracts the first validation failure from err, if any.
func AsValidation(err error) (ValidationError, bool) {
	var many ValidationErrors
	if errors.As(err, &many) && len(many) > 0 {
		return many.First(), true
	}
	var one ValidationError
	if errors.As(err, &one) {
		return one, true
	}
	return ValidationError{}, false
}
