package places

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrAlreadyAccepted is returned by the store when a live accept already
	// exists for the (place, user) pair.
	ErrAlreadyAccepted = errors.New("already accepted")
	// ErrConflict is returned by the store when a write loses a race on a
	// one-active-per-user constraint.
	ErrConflict = errors.New("conflicting concurrent write")
	// ErrPlaceMissing is returned by the store when a child references a
	// place row that does not exist.
	ErrPlaceMissing = errors.New("referenced place does not exist")
)

// ValidationError describes input the caller must fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}
