// Package model contains domain models passed between layers.
package model

import (
	"context"
	"time"

	"github.com/okian/shangan/internal/domain/simulation"
)

// Job is a simulation request travelling through the queue.
type Job struct {
	ID        string             // unique id, also used as the request id in logs
	Ctx       context.Context    // caller context; the worker stops when it is done
	Request   simulation.Request // engine input
	Submitted time.Time          // enqueue time, for queue latency
	Reply     chan<- JobResult   // buffered with capacity 1
}

// JobResult carries the engine outcome back to the submitter.
type JobResult struct {
	JobID  string
	Result simulation.Result
	Err    error
}
