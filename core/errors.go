package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific record field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when raw input must not enter the model:
// a malformed identifier, a non-numeric grade, an empty assignment name.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// IsValidationError reports whether the cause of err is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}
