// Package apperr defines the error taxonomy shared by every handler and
// service. Stores return plain wrapped errors; services classify them into
// one of the kinds below and handlers translate the kind into an HTTP
// status at the boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// Validation covers missing or malformed input and duplicate unique
	// fields reported at registration time.
	Validation Kind = iota
	// Authentication covers missing, invalid, or expired tokens and
	// failed credential checks.
	Authentication
	// Authorization means the actor is authenticated but not permitted.
	Authorization
	// NotFound means a referenced entity does not exist.
	NotFound
	// Conflict covers business-rule violations: duplicate like,
	// category still in use, unique-constraint races.
	Conflict
	// Internal is everything unexpected.
	Internal
)

// Error carries a kind plus the human-readable message returned to the
// client. The wrapped cause, if any, is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a taxonomy error with a formatted message.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a taxonomy error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind of err, defaulting to Internal for anything
// outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Internal errors are
// masked so details never leak to the client.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "Something went wrong!"
}
