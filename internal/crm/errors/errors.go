// Package errors holds the sentinel errors shared by the CRM packages and
// the ValidationError returned by serializers.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrDuplicate    = fmt.Errorf("duplicate record")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrForbidden    = fmt.Errorf("forbidden")
)

// NonFieldErrors is the field key of cross-field validation failures.
const NonFieldErrors = "__all__"

// FieldError is a single validation failure bound to an input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects field errors in the order they were found.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError builds a ValidationError holding one failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// Add appends a failure for field.
func (v *ValidationError) Add(field, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message})
}

// Has reports whether field already failed.
func (v *ValidationError) Has(field string) bool {
	for _, fe := range v.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Empty reports whether no failure was recorded.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Errors) == 0
}

// Err returns v as an error, or nil when it is empty.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

// Fields groups the messages by field name.
func (v *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(v.Errors))
	for _, fe := range v.Errors {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, fe := range v.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) hold for validation failures.
func (v *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
