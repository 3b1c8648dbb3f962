package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage"
)

// ComputeFunc produces a match result on a cache miss.
type ComputeFunc func(ctx context.Context) (*core.MatchResult, error)

// ResultCache stores match results keyed by (document, job description)
// fingerprints.
type ResultCache struct {
	store     storage.BlobStore
	flight    flight
	namespace string
	logger    *slog.Logger
	callers   atomic.Uint64
}

type resultFlight struct {
	result *core.MatchResult
	hit    bool
	owner  uint64
}

// NewResultCache creates a result cache on top of store.
func NewResultCache(store storage.BlobStore, opts ...Option) (*ResultCache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	cfg := newConfig(opts)
	return &ResultCache{
		store:     store,
		flight:    flight{timeout: cfg.computeTimeout},
		namespace: cfg.namespace,
		logger:    cfg.logger.With("component", "result-cache"),
	}, nil
}

// GetOrCompute returns the stored result for the pair, or runs compute once
// and stores its result. The boolean reports whether the value came from
// the store. Callers that join a computation another caller started did no
// work of their own and are reported as hits. Only the caller whose compute
// produced a new result sees false. Callers always receive their own copy.
//
// Stored results carry no per-request fields: DocumentID, ProcessingTime
// and CacheHit are zeroed before storing.
func (c *ResultCache) GetOrCompute(ctx context.Context, docFP, jobFP core.Fingerprint, compute ComputeFunc) (*core.MatchResult, bool, error) {
	key := resultKey(c.namespace, docFP, jobFP)

	if r, ok := c.lookup(ctx, key); ok {
		return r, true, nil
	}

	caller := c.callers.Add(1)
	val, err := c.flight.do(ctx, key, func(ctx context.Context) (any, error) {
		if r, ok := c.lookup(ctx, key); ok {
			return resultFlight{result: r, hit: true, owner: caller}, nil
		}

		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		r := canonical(computed)
		r.DocumentFingerprint = docFP
		r.JobFingerprint = jobFP
		if err := c.store.Put(ctx, []byte(key), storage.MarshalMatchResult(r)); err != nil {
			c.logger.Warn("failed to store match result", "document", docFP.Short(), "job", jobFP.Short(), "err", err)
		} else {
			c.logger.Debug("stored match result", "document", docFP.Short(), "job", jobFP.Short(), "score", r.OverallScore)
		}
		return resultFlight{result: r, owner: caller}, nil
	})
	if err != nil {
		return nil, false, err
	}
	rf := val.(resultFlight)
	return rf.result.Clone(), rf.hit || rf.owner != caller, nil
}

// Stats reports the number and serialized size of stored results.
func (c *ResultCache) Stats(ctx context.Context) (storage.Stats, error) {
	return c.store.Stat(ctx, []byte(ResultPrefix))
}

// Clear removes every stored result. This is the only way stored results
// are destroyed.
func (c *ResultCache) Clear(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx, []byte(ResultPrefix)); err != nil {
		return err
	}
	c.logger.Info("result cache cleared")
	return nil
}

func (c *ResultCache) lookup(ctx context.Context, key string) (*core.MatchResult, bool) {
	data, err := c.store.Get(ctx, []byte(key))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && ctx.Err() == nil {
			c.logger.Warn("result lookup failed", "key", key, "err", err)
		}
		return nil, false
	}
	r, err := storage.UnmarshalMatchResult(data)
	if err != nil {
		c.logger.Warn("discarding corrupt result entry", "key", key, "err", err)
		return nil, false
	}
	return r, true
}

// canonical returns the form of r that survives a store round trip, so a
// freshly computed result and a later hit compare equal.
func canonical(r *core.MatchResult) *core.MatchResult {
	c := r.Clone()
	c.DocumentID = ""
	c.ProcessingTime = 0
	c.CacheHit = false
	if !c.ScoredAt.IsZero() {
		c.ScoredAt = c.ScoredAt.Truncate(time.Microsecond).UTC()
	}
	if len(c.Strengths) == 0 {
		c.Strengths = nil
	}
	if len(c.Gaps) == 0 {
		c.Gaps = nil
	}
	if len(c.SelectedChunks) == 0 {
		c.SelectedChunks = nil
	}
	return c
}
