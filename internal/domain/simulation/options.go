package simulation

import "github.com/okian/shangan/internal/domain/sampler"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// ProgressFunc is called at every yield point with the number of trials
// already completed.
type ProgressFunc func(done, total int)

// WithSampler sets the normal sampler used to fill pools.
func WithSampler(s sampler.Sampler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sampler = s
		}
	}
}

// WithTrials sets the number of trials per run.
func WithTrials(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.trials = n
		}
	}
}

// WithBatchSize sets how many draws each rejection round requests.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithYieldEvery sets the trial interval between yield points.
func WithYieldEvery(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.yieldEvery = n
		}
	}
}

// WithProgress registers a hook invoked at each yield point.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}
