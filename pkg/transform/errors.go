package transform

import (
	"errors"
	"fmt"
)

// InvalidInputError reports that the transformation rejected its input as
// outside its domain. This is the one error class the harness treats as
// expected: the trial is recorded as skipped, not failed. Anything else
// returned from Apply is a fault.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid input %q", e.Input)
	}
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// Invalid builds an InvalidInputError for input with a reason.
func Invalid(input, reason string) error {
	return &InvalidInputError{Input: input, Reason: reason}
}

// IsInvalidInput reports whether err is, or wraps, an input rejection.
func IsInvalidInput(err error) bool {
	var invalid *InvalidInputError
	return errors.As(err, &invalid)
}
