package booking

import (
	"errors"

	"github.com/google/uuid"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrOutsideSchedule   = errors.New("outside schedule")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error carries a caller-facing message for one of the kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func notFound(what string) error {
	return &Error{Kind: ErrNotFound, Message: what + " not found"}
}

func conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func invalidTransition(msg string) error {
	return &Error{Kind: ErrInvalidTransition, Message: msg}
}

// validID rejects ids Postgres would refuse to cast, so they surface as not found.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
