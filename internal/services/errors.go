package services

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrState        = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)

// Error attaches a user-facing reason to one of the sentinels above.
type Error struct {
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func fail(kind error, reason string) error {
	return &Error{Kind: kind, Reason: reason}
}

// Reason returns the user-facing reason carried by err, or "" if none.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
