package simcli

import "errors"

// Sentinel kinds for CLI input errors.
var (
	ErrInvalidRival = errors.New("invalid rival flag")
)
