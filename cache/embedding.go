package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage"
	"golang.org/x/sync/errgroup"
)

// EmbedFunc computes the embedding for text.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// EmbeddingCache stores vectors keyed by (fingerprint, model).
// Entries never expire; Clear removes all of them.
type EmbeddingCache struct {
	store  storage.BlobStore
	flight flight
	logger *slog.Logger
}

// NewEmbeddingCache creates an embedding cache on top of store.
func NewEmbeddingCache(store storage.BlobStore, opts ...Option) (*EmbeddingCache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	cfg := newConfig(opts)
	return &EmbeddingCache{
		store:  store,
		flight: flight{timeout: cfg.computeTimeout},
		logger: cfg.logger.With("component", "embedding-cache"),
	}, nil
}

// GetOrCompute returns the cached vector for (fp, modelID), calling embed
// exactly once on a miss. Concurrent callers for the same missing key share
// one call and receive the same vector or the same error.
func (c *EmbeddingCache) GetOrCompute(ctx context.Context, fp core.Fingerprint, modelID, text string, embed EmbedFunc) ([]float32, error) {
	key := embeddingKey(modelID, fp)

	if vec, ok := c.lookup(ctx, key); ok {
		return slices.Clone(vec), nil
	}

	val, err := c.flight.do(ctx, key, func(ctx context.Context) (any, error) {
		// A previous flight may have stored the key since the lookup above.
		if vec, ok := c.lookup(ctx, key); ok {
			return vec, nil
		}

		vec, err := embed(ctx, text)
		if err != nil {
			if !errors.Is(err, core.ErrEmbeddingService) {
				err = fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
			}
			return nil, err
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty vector for %s", core.ErrEmbeddingService, fp.Short())
		}

		entry := &core.Embedding{Fingerprint: fp, ModelID: modelID, Vector: vec}
		if err := c.store.Put(ctx, []byte(key), storage.MarshalEmbedding(entry)); err != nil {
			c.logger.Warn("failed to store embedding", "fingerprint", fp.Short(), "err", err)
		}
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(val.([]float32)), nil
}

// EmbedAll resolves a vector for each text, fanning out at most
// concurrency misses at a time. Identical texts share one computation.
func (c *EmbeddingCache) EmbedAll(ctx context.Context, modelID string, texts []string, concurrency int, embed EmbedFunc) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, text := range texts {
		g.Go(func() error {
			vec, err := c.GetOrCompute(gctx, core.FingerprintOf(text), modelID, text, embed)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Stats reports the number and size of stored embeddings.
func (c *EmbeddingCache) Stats(ctx context.Context) (storage.Stats, error) {
	return c.store.Stat(ctx, []byte(EmbeddingPrefix))
}

// Clear removes every stored embedding. Computations in flight when Clear
// runs may store their result afterwards.
func (c *EmbeddingCache) Clear(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx, []byte(EmbeddingPrefix)); err != nil {
		return err
	}
	c.logger.Info("embedding cache cleared")
	return nil
}

func (c *EmbeddingCache) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, []byte(key))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && ctx.Err() == nil {
			c.logger.Warn("embedding lookup failed", "key", key, "err", err)
		}
		return nil, false
	}
	entry, err := storage.UnmarshalEmbedding(data)
	if err != nil || len(entry.Vector) == 0 {
		c.logger.Warn("discarding corrupt embedding entry", "key", key, "err", err)
		return nil, false
	}
	return entry.Vector, true
}
