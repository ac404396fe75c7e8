// Package config defines service configuration and how it is loaded.
//
// Defaults come from New; Load layers an optional YAML file and SHANGAN_*
// environment variables on top.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of simulation workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory simulation job queue.
	QueueSize int `koanf:"queue_size"`

	// Trials is the number of Monte Carlo trials per simulation.
	Trials int `koanf:"trials"`

	// BatchSize is the number of normal draws requested per pool batch.
	BatchSize int `koanf:"batch_size"`

	// YieldEvery is how many trials run between cancellation checks.
	YieldEvery int `koanf:"yield_every"`

	// MaxBodyBytes caps the POST /simulate request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		WorkerCount:  runtime.NumCPU(),
		QueueSize:    256,
		Trials:       10_000,
		BatchSize:    2_000,
		YieldEvery:   1_000,
		MaxBodyBytes: 64 << 10,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.Trials <= 0:
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidConfig, c.Trials)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.YieldEvery <= 0:
		return fmt.Errorf("%w: yield_every must be positive, got %d", ErrInvalidConfig, c.YieldEvery)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive, got %d", ErrInvalidConfig, c.MaxBodyBytes)
	}
	return nil
}
