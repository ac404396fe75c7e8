package service

import "errors"

// Sentinel errors returned by Service.
var (
	// ErrBackpressure means the job queue is full; retry later.
	ErrBackpressure = errors.New("simulation queue full")
	// ErrNotStarted means Start has not been called or Stop already ran.
	ErrNotStarted = errors.New("service not started")
)
