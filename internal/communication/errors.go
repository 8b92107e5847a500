package communication

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown or removed records.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when a record is missing required fields.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when an officer acts outside their authority.
	ErrForbidden = errors.New("forbidden")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(kind string, id fmt.Stringer) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
