package ranking

import (
	"errors"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/resumatch/cache"
	"github.com/poiesic/resumatch/chunker"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/extract"
	"github.com/poiesic/resumatch/scoring"
)

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of documents processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithTopK sets how many chunks are retrieved per document. Default is 5.
func WithTopK(k int) Option {
	return func(p *Pipeline) error {
		if k <= 0 {
			return core.ErrInvalidTopK
		}
		p.topK = k
		return nil
	}
}

// WithPooling sets the strategy used to combine selected chunks.
// Default is core.PoolingMax.
func WithPooling(strategy core.PoolingStrategy) Option {
	return func(p *Pipeline) error {
		switch strategy {
		case core.PoolingMax, core.PoolingMean, core.PoolingWeighted:
			p.pooling = strategy
			return nil
		default:
			return core.ErrInvalidPooling
		}
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(p *Pipeline) error {
		if s == nil {
			return errors.New("scorer cannot be nil")
		}
		p.scorer = s
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c == nil {
			return errors.New("chunker cannot be nil")
		}
		p.chunker = c
		return nil
	}
}

// WithCategoryHint breaks retrieval ties in favor of chunks from section and
// asks the scorer to focus on it. Chunks are never filtered out.
func WithCategoryHint(section core.Section) Option {
	return func(p *Pipeline) error {
		p.hint = section
		return nil
	}
}

// WithProfiles enables structured profile extraction. Each résumé and job
// description is profiled once per completion model, cached in c, and the
// profiles are given to the scorer ahead of the excerpts. Off by default.
func WithProfiles(c *cache.ProfileCache) Option {
	return func(p *Pipeline) error {
		if c == nil {
			return errors.New("profile cache cannot be nil")
		}
		p.profiles = c
		return nil
	}
}

// WithExtractor sets the extractor used by MatchRaw and RankRaw.
// Default is extract.TextExtractor.
func WithExtractor(e extract.Extractor) Option {
	return func(p *Pipeline) error {
		if e == nil {
			return errors.New("extractor cannot be nil")
		}
		p.extractor = e
		return nil
	}
}

// WithMonitor sets hooks that observe ranking runs.
func WithMonitor(m Monitor) Option {
	return func(p *Pipeline) error {
		if m == nil {
			m = &noopMonitor{}
		}
		p.monitor = m
		return nil
	}
}

// WithEmbedConcurrency caps concurrent embedding requests per document.
// Default is 4.
func WithEmbedConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.embedConcurrency = n
		return nil
	}
}

// WithRetry retries embedding and completion requests that fail with a
// transient service error. Default is a single attempt.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.retryAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}
