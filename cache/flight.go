package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// flight runs at most one computation per key. The computation is detached
// from the caller's cancellation; callers stop waiting when their own
// context is done.
type flight struct {
	group   singleflight.Group
	timeout time.Duration
}

func (f *flight) do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := f.group.DoChan(key, func() (any, error) {
		cctx := context.WithoutCancel(ctx)
		if f.timeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(cctx, f.timeout)
			defer cancel()
		}
		return fn(cctx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
