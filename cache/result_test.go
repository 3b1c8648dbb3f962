package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResultCache(t *testing.T, opts ...Option) *ResultCache {
	t.Helper()
	c, err := NewResultCache(badger.NewTestBackend(t), opts...)
	require.NoError(t, err)
	return c
}

func scoredResult() *core.MatchResult {
	return &core.MatchResult{
		DocumentID:     "cv.pdf",
		OverallScore:   82,
		CategoryScores: core.CategoryScores{Skills: 90, Experience: 80, Education: 70},
		Strengths:      []core.Strength{{Label: "Go", Detail: "production services"}},
		Gaps:           []core.Gap{},
		Recommendation: core.StrongMatch,
		SelectedChunks: []int{1, 0},
		ScoredAt:       time.Now(),
		ProcessingTime: time.Second,
	}
}

func TestResultCache_MissThenHit(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()
	docFP, jobFP := core.FingerprintOf("resume"), core.FingerprintOf("job")

	var calls atomic.Int32
	compute := func(context.Context) (*core.MatchResult, error) {
		calls.Add(1)
		return scoredResult(), nil
	}

	first, hit, err := c.GetOrCompute(ctx, docFP, jobFP, compute)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := c.GetOrCompute(ctx, docFP, jobFP, compute)
	require.NoError(t, err)
	assert.True(t, hit)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Empty(t, second.DocumentID)
	assert.Zero(t, second.ProcessingTime)
	assert.Equal(t, docFP, second.DocumentFingerprint)
	assert.Equal(t, jobFP, second.JobFingerprint)
}

func TestResultCache_PairIsTheKey(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()
	docFP := core.FingerprintOf("resume")

	var calls atomic.Int32
	compute := func(context.Context) (*core.MatchResult, error) {
		calls.Add(1)
		return scoredResult(), nil
	}

	_, _, err := c.GetOrCompute(ctx, docFP, core.FingerprintOf("job one"), compute)
	require.NoError(t, err)
	_, _, err = c.GetOrCompute(ctx, docFP, core.FingerprintOf("job two"), compute)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
}

func TestResultCache_NamespacesAreIndependent(t *testing.T) {
	backend := badger.NewTestBackend(t)
	a, err := NewResultCache(backend, WithNamespace("mistral"))
	require.NoError(t, err)
	b, err := NewResultCache(backend, WithNamespace("llama"))
	require.NoError(t, err)

	ctx := context.Background()
	docFP, jobFP := core.FingerprintOf("resume"), core.FingerprintOf("job")
	compute := func(context.Context) (*core.MatchResult, error) { return scoredResult(), nil }

	_, _, err = a.GetOrCompute(ctx, docFP, jobFP, compute)
	require.NoError(t, err)
	_, hit, err := b.GetOrCompute(ctx, docFP, jobFP, compute)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResultCache_FailureNotCached(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()
	docFP, jobFP := core.FingerprintOf("resume"), core.FingerprintOf("job")

	boom := &core.ScoringError{Raw: "not json", Attempts: 2, Err: errors.New("bad")}
	_, _, err := c.GetOrCompute(ctx, docFP, jobFP, func(context.Context) (*core.MatchResult, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, core.ErrScoring)

	r, hit, err := c.GetOrCompute(ctx, docFP, jobFP, func(context.Context) (*core.MatchResult, error) {
		return scoredResult(), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 82.0, r.OverallScore)
}

func TestResultCache_ConcurrentMissesShareOneCompute(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()
	docFP, jobFP := core.FingerprintOf("resume"), core.FingerprintOf("job")

	var calls atomic.Int32
	compute := func(context.Context) (*core.MatchResult, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return scoredResult(), nil
	}

	const n = 10
	var wg sync.WaitGroup
	results := make([]*core.MatchResult, n)
	var misses atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, hit, err := c.GetOrCompute(ctx, docFP, jobFP, compute)
			assert.NoError(t, err)
			if !hit {
				misses.Add(1)
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	// only the caller that ran compute reports a miss
	assert.Equal(t, int32(1), misses.Load())
	for i := 1; i < n; i++ {
		assert.Equal(t, results[0], results[i])
	}
	// every caller owns its copy
	results[0].Strengths[0].Label = "changed"
	assert.Equal(t, "Go", results[1].Strengths[0].Label)
}

func TestResultCache_Clear(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()
	compute := func(context.Context) (*core.MatchResult, error) { return scoredResult(), nil }

	_, _, err := c.GetOrCompute(ctx, core.FingerprintOf("a"), core.FingerprintOf("j"), compute)
	require.NoError(t, err)

	require.NoError(t, c.Clear(ctx))
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.Bytes)

	_, hit, err := c.GetOrCompute(ctx, core.FingerprintOf("a"), core.FingerprintOf("j"), compute)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestResultKey(t *testing.T) {
	assert.Equal(t, "res:d:j", resultKey("", "d", "j"))
	assert.Equal(t, "res:ns:d:j", resultKey("ns", "d", "j"))
	assert.Equal(t, "emb:m:f", embeddingKey("m", "f"))
}
