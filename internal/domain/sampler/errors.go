package sampler

import "errors"

// Sentinel kinds for sampler errors.
var (
	ErrPoolExhausted = errors.New("sample pool exhausted")
)
