package worker

import "errors"

// ErrPoolStopped is the reply to jobs still queued when the pool gave up
// draining.
var ErrPoolStopped = errors.New("worker pool stopped")
