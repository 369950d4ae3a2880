package service

import "errors"

var (
	// ErrNotFound maps to 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict maps to 409: an illegal state transition or a review of
	// an already-reviewed suggestion.
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects malformed, missing, or out-of-range input at
// the service boundary before any store mutation. Maps to 400.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}
