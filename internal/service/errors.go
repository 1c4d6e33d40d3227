package service

import (
	"errors"
	"strings"
)

var (
	// ErrTransport is returned when the service could not be reached or did
	// not answer in time.
	ErrTransport = errors.New("service unreachable")

	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated is returned when the bearer credential is missing
	// or was rejected; the user has to log in again.
	ErrUnauthenticated = errors.New("not logged in")
)

// ValidationError is a rejected request, either by the client-side
// required-field guard or by the service. Message is shown verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Message returns the text to show the user for err: the validation
// message when there is one, a fixed text for the other known kinds, and
// fallback otherwise.
func Message(err error, fallback string) string {
	var v *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &v) && strings.TrimSpace(v.Message) != "":
		return v.Message
	case errors.Is(err, ErrUnauthenticated):
		return "not logged in (run: taskdeck login)"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrTransport):
		return fallback + ": service unreachable"
	}
	return fallback
}
