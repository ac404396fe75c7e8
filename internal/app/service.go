// Package service wires the simulation engine behind a bounded queue and a
// worker pool and exposes it to the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/shangan/internal/adapters/mq/queue"
	workerpool "github.com/okian/shangan/internal/adapters/mq/worker"
	"github.com/okian/shangan/internal/domain/exam"
	"github.com/okian/shangan/internal/domain/model"
	"github.com/okian/shangan/internal/domain/sampler"
	"github.com/okian/shangan/internal/domain/simulation"
	"github.com/okian/shangan/pkg/logger"
	"github.com/okian/shangan/pkg/metrics"
)

const (
	defaultQueueSize = 256
	stopTimeout      = 10 * time.Second
)

// Service runs simulations asynchronously on a worker pool.
type Service struct {
	mu sync.RWMutex

	engine *simulation.Engine
	queue  jobqueue.Queue
	pool   *workerpool.Pool
	cancel context.CancelFunc

	workerCount int
	queueSize   int
	trials      int
	batchSize   int
	yieldEvery  int
	sampler     sampler.Sampler

	started bool

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending simulations.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTrials sets the Monte Carlo trial count per simulation.
func WithTrials(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trials = n
		}
	}
}

// WithBatchSize sets the sampler batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithYieldEvery sets how many trials run between cancellation checks.
func WithYieldEvery(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.yieldEvery = n
		}
	}
}

// WithSampler replaces the normal sampler. Mostly useful in tests.
func WithSampler(smp sampler.Sampler) Option {
	return func(s *Service) {
		s.sampler = smp
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		trials:      simulation.DefaultTrials,
		batchSize:   sampler.DefaultBatchSize,
		yieldEvery:  simulation.DefaultYieldEvery,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine, queue and worker pool and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	engineOpts := []simulation.Option{
		simulation.WithTrials(s.trials),
		simulation.WithBatchSize(s.batchSize),
		simulation.WithYieldEvery(s.yieldEvery),
	}
	if s.sampler != nil {
		engineOpts = append(engineOpts, simulation.WithSampler(s.sampler))
	}
	s.engine = simulation.New(engineOpts...)
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.engine)

	// Workers outlive the Start ctx; Stop cancels them.
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "simulation service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("trials", s.trials),
	)
	return nil
}

// Stop drains queued jobs and stops the workers. New submissions are
// refused as soon as Stop begins; the drain runs without holding the
// service lock so stats stay readable.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, stopWorkers := s.pool, s.cancel
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping simulation service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	stopWorkers()
	s.logger.Info(ctx, "simulation service stopped")
}

// Simulate validates req, queues it and waits for the result. The returned
// id identifies the run in logs and responses.
func (s *Service) Simulate(ctx context.Context, req simulation.Request) (string, simulation.Result, error) {
	id := uuid.NewString()

	if err := req.Validate(); err != nil {
		var ipe *simulation.InvalidParametersError
		if errors.As(err, &ipe) {
			metrics.RecordInvalidRequest(ipe.Field)
		}
		return id, simulation.Result{}, err
	}

	reply := make(chan model.JobResult, 1)
	job := model.Job{ID: id, Ctx: ctx, Request: req, Submitted: time.Now(), Reply: reply}

	if err := s.enqueue(ctx, job); err != nil {
		return id, simulation.Result{}, err
	}
	s.submitted.Add(1)

	select {
	case r := <-reply:
		if r.Err != nil {
			s.failed.Add(1)
			if errors.Is(r.Err, workerpool.ErrPoolStopped) {
				return id, simulation.Result{}, fmt.Errorf("simulation %s: %w: %w", id, ErrNotStarted, r.Err)
			}
			return id, simulation.Result{}, r.Err
		}
		s.completed.Add(1)
		s.logger.Info(ctx, "simulation completed",
			logger.String("id", id),
			logger.String("exam", string(req.Profile.Type)),
			logger.Int("participants", req.TotalParticipants),
			logger.Int("slots", req.PromotionSlots),
			logger.Float64("probability", r.Result.PromotionProbability),
		)
		return id, r.Result, nil
	case <-ctx.Done():
		s.failed.Add(1)
		return id, simulation.Result{}, fmt.Errorf("simulation %s: %w", id, ctx.Err())
	}
}

func (s *Service) enqueue(ctx context.Context, job model.Job) error { //nolint:gocritic // hugeParam: Job is sent by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	err := s.queue.Enqueue(ctx, job)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jobqueue.ErrFull):
		s.rejected.Add(1)
		s.logger.Warn(ctx, "rejecting simulation, queue full",
			logger.String("id", job.ID),
			logger.Int("capacity", s.queue.Cap()),
		)
		return ErrBackpressure
	case errors.Is(err, jobqueue.ErrClosed):
		return ErrNotStarted
	default:
		return err
	}
}

// Profiles lists the supported exam types.
func (s *Service) Profiles() []exam.Profile {
	return exam.Profiles()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"trials":      s.trials,
		"submitted":   s.submitted.Load(),
		"completed":   s.completed.Load(),
		"rejected":    s.rejected.Load(),
		"failed":      s.failed.Load(),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["workerCount"] = s.pool.Size()
	}
	return stats
}
