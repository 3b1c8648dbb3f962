package cache

import (
	"log/slog"
	"time"
)

const defaultComputeTimeout = 5 * time.Minute

type config struct {
	logger         *slog.Logger
	computeTimeout time.Duration
	namespace      string
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:         slog.Default(),
		computeTimeout: defaultComputeTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a cache.
type Option func(*config)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithComputeTimeout bounds a single detached computation. Zero disables
// the bound. Default is 5 minutes.
func WithComputeTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.computeTimeout = d
		}
	}
}

// WithNamespace partitions result cache keys, e.g. by completion model, so
// results produced under different scoring setups do not collide.
func WithNamespace(ns string) Option {
	return func(c *config) {
		c.namespace = ns
	}
}
