package mail

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRequestType is returned when the service receives a
	// request type it does not handle.
	ErrUnknownRequestType = errors.New("unknown request type")

	// ErrMessageNotFound is returned when a message UID does not exist
	// in the selected mailbox.
	ErrMessageNotFound = errors.New("message not found")

	// ErrMailboxRequired is returned when an operation is missing the
	// mailbox name.
	ErrMailboxRequired = errors.New("mailbox name is required")
)

// ValidationError reports caller input that was rejected before any store
// interaction: malformed cursors, contradictory flags, unparsable dates and
// inverted ranges. The offending field and the raw value are echoed back so
// agents can self-correct.
type ValidationError struct {
	// Field is the name of the rejected input field.
	Field string

	// Value is the raw caller-supplied value.
	Value string

	// Reason describes why the value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// newValidationError builds a ValidationError for the given field.
func newValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
