package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. a plan referencing session ids the program does not
// contain). Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnavailable is returned when the source spreadsheet cannot be fetched
// and no cached snapshot exists to fall back on. Handlers should map this to
// HTTP 503 with a generic "data unavailable" message; the transport detail
// stays in the logs.
var ErrUnavailable = errors.New("data unavailable")

// ErrConflict is returned by repo functions when an insert collides with an
// existing row (e.g. a share code already taken). Callers may retry with
// fresh input; any other error should be returned as-is.
var ErrConflict = errors.New("already exists")

// Error pairs a sentinel with the message shown to API clients. errors.Is
// still matches the sentinel; handlers read Message directly instead of
// re-parsing the formatted error chain, so messages may safely contain
// ": " themselves (session ids do).
type Error struct {
	Sentinel error
	Message  string
}

func (e *Error) Error() string { return e.Sentinel.Error() + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Sentinel }

// Validationf builds an ErrValidation carrying a formatted client-facing
// message.
func Validationf(format string, args ...any) error {
	return &Error{Sentinel: ErrValidation, Message: fmt.Sprintf(format, args...)}
}
