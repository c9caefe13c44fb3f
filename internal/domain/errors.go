package domain

import (
	"errors"
	"fmt"
)

// Registration failures. Each maps to one deterministic classification.
var (
	ErrMissingParameter = errors.New("both name and url are required")
	ErrInvalidFormat    = errors.New("name must not contain whitespace and url must be an absolute URL")
	ErrDuplicateURL     = errors.New("url is already monitored")
	ErrDuplicateName    = errors.New("name is already in use")
	ErrTargetNotFound   = errors.New("target not found")
)

// PersistenceError reports a failed write to the registry's backing store.
// The in-memory registry is rolled back before it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is one of the registration failures.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingParameter) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrDuplicateURL) ||
		errors.Is(err, ErrDuplicateName)
}
