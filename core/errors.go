package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned both for missing rows and for rows the caller is not allowed to see.
var ErrNotFound = errors.New("not found")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return fmt.Sprintf("invalid %s: %s", err.Fields[0].Field, err.Fields[0].Error)
		}
		return ""
	}
	return err.Err.Error()
}

// ConstraintError reports a uniqueness, check, foreign-key or not-null violation raised by storage.
type ConstraintError struct {
	Constraint string
	Err        error
}

func NewConstraintError(constraint string, err error) error {
	return &ConstraintError{Constraint: constraint, Err: err}
}

func (err ConstraintError) Error() string {
	if err.Err == nil {
		return "constraint violation: " + err.Constraint
	}
	return fmt.Sprintf("constraint violation: %s: %v", err.Constraint, err.Err)
}

func (err ConstraintError) Unwrap() error { return err.Err }

// IsConstraintViolation reports whether err was caused by a storage constraint violation.
func IsConstraintViolation(err error) bool {
	var cErr *ConstraintError
	return errors.As(err, &cErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
