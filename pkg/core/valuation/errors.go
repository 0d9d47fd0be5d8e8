package valuation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks a parameter that violates the model's preconditions
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingData marks an external metric that was not available.
	// It only disables the over/undervalued classification.
	ErrMissingData = errors.New("missing data")
)

// InputError names the offending parameter so callers can display a diagnostic
type InputError struct {
	Param  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Param, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(param string, value float64, format string, args ...interface{}) *InputError {
	return &InputError{Param: param, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// NewInputError builds an InputError for validation done outside this package
func NewInputError(param string, value float64, reason string) *InputError {
	return &InputError{Param: param, Value: value, Reason: reason}
}
