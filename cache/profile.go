package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage"
)

// ProfileFunc extracts a structured profile from text.
type ProfileFunc func(ctx context.Context, kind core.ProfileKind, text string) (*core.Profile, error)

// ProfileCache stores extracted profiles keyed by (kind, model, fingerprint).
// A résumé is profiled once no matter how many jobs it is matched against.
type ProfileCache struct {
	store  storage.BlobStore
	flight flight
	logger *slog.Logger
}

// NewProfileCache creates a profile cache on top of store.
func NewProfileCache(store storage.BlobStore, opts ...Option) (*ProfileCache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	cfg := newConfig(opts)
	return &ProfileCache{
		store:  store,
		flight: flight{timeout: cfg.computeTimeout},
		logger: cfg.logger.With("component", "profile-cache"),
	}, nil
}

// GetOrCompute returns the stored profile, calling extract at most once per
// key among concurrent callers. Failures are not stored.
func (c *ProfileCache) GetOrCompute(ctx context.Context, kind core.ProfileKind, fp core.Fingerprint, modelID, text string, extract ProfileFunc) (*core.Profile, error) {
	key := profileKey(kind, modelID, fp)

	if p, ok := c.lookup(ctx, key); ok {
		return p.Clone(), nil
	}

	val, err := c.flight.do(ctx, key, func(ctx context.Context) (any, error) {
		if p, ok := c.lookup(ctx, key); ok {
			return p, nil
		}

		p, err := extract(ctx, kind, text)
		if err != nil {
			return nil, err
		}
		p = p.Clone()
		p.Kind = kind
		p.Fingerprint = fp
		if err := c.store.Put(ctx, []byte(key), storage.MarshalProfile(p)); err != nil {
			c.logger.Warn("failed to store profile", "kind", kind, "fingerprint", fp.Short(), "err", err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*core.Profile).Clone(), nil
}

// Stats reports the number and size of stored profiles.
func (c *ProfileCache) Stats(ctx context.Context) (storage.Stats, error) {
	return c.store.Stat(ctx, []byte(ProfilePrefix))
}

// Clear removes every stored profile.
func (c *ProfileCache) Clear(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx, []byte(ProfilePrefix)); err != nil {
		return err
	}
	c.logger.Info("profile cache cleared")
	return nil
}

func (c *ProfileCache) lookup(ctx context.Context, key string) (*core.Profile, bool) {
	data, err := c.store.Get(ctx, []byte(key))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && ctx.Err() == nil {
			c.logger.Warn("profile lookup failed", "key", key, "err", err)
		}
		return nil, false
	}
	p, err := storage.UnmarshalProfile(data)
	if err != nil {
		c.logger.Warn("discarding corrupt profile entry", "key", key, "err", err)
		return nil, false
	}
	return p, true
}
