package simulation

import (
	"errors"
	"fmt"
)

// Sentinel kinds for simulation errors.
var (
	ErrInvalidParameters = errors.New("invalid parameters")
)

// InvalidParametersError describes which request field is out of range.
type InvalidParametersError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("%s: %s=%d, want %d..%d", ErrInvalidParameters, e.Field, e.Value, e.Min, e.Max)
}

// Unwrap lets errors.Is match ErrInvalidParameters.
func (e *InvalidParametersError) Unwrap() error { return ErrInvalidParameters }
