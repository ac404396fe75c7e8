// Package worker runs queued simulation jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/shangan/internal/domain/model"
	"github.com/okian/shangan/internal/domain/simulation"
	"github.com/okian/shangan/pkg/logger"
	"github.com/okian/shangan/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.Job

// Runner executes one simulation.
type Runner interface {
	Simulate(ctx context.Context, req simulation.Request) (simulation.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker runs jobs from a Queue through a Runner.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when ctx is done, Shutdown is
// called, or the queue channel is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(job)
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// process runs one job and delivers its result.
func (w *InMemoryWorker) process(job Job) { //nolint:gocritic // hugeParam: Job is received by value
	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if !job.Submitted.IsZero() {
		metrics.RecordQueueWait(float64(time.Since(job.Submitted).Milliseconds()))
	}

	// The submitter gave up while the job was queued.
	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("worker", "abandoned")
		w.reply(ctx, job, model.JobResult{JobID: job.ID, Err: err})
		return
	}

	metrics.WorkerBusy()
	metrics.SimulationStarted()
	start := time.Now()
	res, err := w.runner.Simulate(ctx, job.Request)
	took := time.Since(start)
	metrics.SimulationFinished()
	metrics.WorkerIdle()

	exam := string(job.Request.Profile.Type)
	switch {
	case err == nil:
		metrics.RecordSimulation(exam, res.Promoted, res.PromotionProbability, took)
		metrics.RecordSampling("written", res.Sampling.Written.Drawn, res.Sampling.Written.Accepted)
		metrics.RecordSampling("interview", res.Sampling.Interview.Drawn, res.Sampling.Interview.Accepted)
		w.logger.Debug(ctx, "simulation finished",
			logger.String("job_id", job.ID),
			logger.String("exam", exam),
			logger.Float64("probability", res.PromotionProbability),
			logger.Duration("took", took),
		)
	case errors.Is(err, simulation.ErrInvalidParameters):
		// Counted by the submitter.
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.RecordErrorByComponent("worker", "cancelled")
		w.logger.Info(ctx, "simulation cancelled",
			logger.String("job_id", job.ID),
			logger.Duration("took", took),
		)
	default:
		metrics.RecordErrorByComponent("worker", "simulation_error")
		w.logger.Error(ctx, "simulation failed",
			logger.String("job_id", job.ID),
			logger.Error(err),
		)
	}

	w.reply(ctx, job, model.JobResult{JobID: job.ID, Result: res, Err: err})
}

func (w *InMemoryWorker) reply(ctx context.Context, job Job, r model.JobResult) { //nolint:gocritic // hugeParam: Job is received by value
	if !deliver(job, r) {
		w.logger.Warn(ctx, "reply channel full, result dropped", logger.String("job_id", job.ID))
	}
}

// deliver hands r to the job's submitter without blocking. It reports
// false when the reply had to be dropped.
func deliver(job Job, r model.JobResult) bool { //nolint:gocritic // hugeParam: Job is received by value
	if job.Reply == nil {
		return true
	}
	select {
	case job.Reply <- r:
		return true
	default:
		metrics.RecordErrorByComponent("worker", "reply_dropped")
		return false
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one means
// one worker per CPU.
func NewPool(workerCount int, queue Queue, runner Runner) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(queue, runner, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop signals every worker and waits for them to return.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.stop()
	}
	for _, w := range p.workers {
		<-w.done
	}
}

// Shutdown closes the queue and lets workers drain what is left. Workers
// still busy when ctx or the pool timeout expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			w.stop()
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		if n := p.rejectQueued(); n > 0 {
			p.logger.Warn(ctx, "rejected queued jobs after shutdown timeout", logger.Int("jobs", n))
		}
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}

// rejectQueued answers every job left in the queue with ErrPoolStopped so
// no submitter waits on a job that will never run. It returns how many
// jobs it rejected.
func (p *Pool) rejectQueued() int {
	jobs := p.queue.Dequeue(context.Background())
	n := 0
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return n
			}
			metrics.RecordErrorByComponent("worker", "rejected_on_shutdown")
			deliver(job, model.JobResult{JobID: job.ID, Err: ErrPoolStopped})
			n++
		default:
			return n
		}
	}
}
