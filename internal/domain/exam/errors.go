package exam

import (
	"errors"
	"fmt"
)

// Sentinel kinds for exam lookups.
var (
	ErrUnknownExam      = errors.New("unknown exam type")
	ErrCutoffOutOfRange = errors.New("written cutoff out of range")
)

// CutoffError reports a written cutoff that leaves no written score to
// sample above it.
type CutoffError struct {
	Cutoff     float64
	WrittenMax float64
}

func (e *CutoffError) Error() string {
	return fmt.Sprintf("%s: written_cutoff=%g, want below %g", ErrCutoffOutOfRange, e.Cutoff, e.WrittenMax)
}

// Unwrap lets errors.Is match ErrCutoffOutOfRange.
func (e *CutoffError) Unwrap() error { return ErrCutoffOutOfRange }
