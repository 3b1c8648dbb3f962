package openai

import (
	"context"

	"golang.org/x/time/rate"
)

// newLimiter returns nil when rps is zero, meaning unlimited.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}

// wait blocks until the limiter admits one request. A nil limiter admits
// immediately.
func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
