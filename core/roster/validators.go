package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kitabu/core"
)

const (
	// StudentNumberLength is the canonical length of a student number.
	// Shorter (by one digit) numbers are accepted and zero-padded.
	StudentNumberLength = 10

	// MaxLoginIDLength is the maximum length of an institutional login id.
	MaxLoginIDLength = 8
)

var (
	ErrInvalidStudentNumber = errors.New("invalid student number")
	ErrInvalidLoginID       = errors.New("invalid login id")
	ErrInvalidEmail         = errors.New("invalid email address")
)

// Register the student_number tag and its error message.
func init() {
	_ = core.Validate.RegisterValidation("student_number", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return isDigits(s) && len(s) >= StudentNumberLength-1 && len(s) <= StudentNumberLength
	})
	core.RegisterCustomTranslation("student_number",
		fmt.Sprintf("{0} must be %d or %d digits", StudentNumberLength-1, StudentNumberLength))
}

// NormalizeStudentNumber validates a raw student number and canonicalizes it
// to StudentNumberLength digits by left-padding with zeros.
func NormalizeStudentNumber(s string) (string, error) {
	s = core.CleanString(s)
	if err := core.Validate.Var(s, "required,student_number"); err != nil {
		return "", invalidInfo(ErrInvalidStudentNumber, AttrStudentNumber, s)
	}
	return strings.Repeat("0", StudentNumberLength-len(s)) + s, nil
}

// ValidateLoginID validates a raw login id: alphanumeric, at most
// MaxLoginIDLength characters.
func ValidateLoginID(s string) (string, error) {
	s = core.CleanString(s)
	if err := core.Validate.Var(s, fmt.Sprintf("required,alphanum,max=%d", MaxLoginIDLength)); err != nil {
		return "", invalidInfo(ErrInvalidLoginID, AttrLoginID, s)
	}
	return s, nil
}

// ValidateEmail validates a raw email address.
func ValidateEmail(s string) (string, error) {
	s = core.CleanString(s)
	if err := core.Validate.Var(s, "required,email"); err != nil {
		return "", invalidInfo(ErrInvalidEmail, AttrEmail, s)
	}
	return s, nil
}

func invalidInfo(err error, attr Attr, value string) error {
	return core.NewValidationError(err, core.FieldError{
		Field: string(attr),
		Error: fmt.Sprintf("cannot create Student with given %s: %q", attr, value),
	})
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
