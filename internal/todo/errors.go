package todo

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an update targets a todo that does not exist
// for the caller.
var ErrNotFound = errors.New("todo not found")

// ValidationError reports malformed or out-of-range client input. It is the
// only error kind that maps to a rejected request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
