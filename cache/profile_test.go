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

type countingProfiler struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (p *countingProfiler) extract(_ context.Context, kind core.ProfileKind, text string) (*core.Profile, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &core.Profile{Kind: kind, Skills: []string{text}, YearsExperience: 3, Seniority: core.SeniorityMid}, nil
}

func newTestProfileCache(t *testing.T) *ProfileCache {
	t.Helper()
	c, err := NewProfileCache(badger.NewTestBackend(t))
	require.NoError(t, err)
	return c
}

func TestNewProfileCache_RequiresStore(t *testing.T) {
	_, err := NewProfileCache(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestProfileCache_HitSkipsExtract(t *testing.T) {
	c := newTestProfileCache(t)
	pr := &countingProfiler{}
	ctx := context.Background()
	fp := core.FingerprintOf("Go developer")

	first, err := c.GetOrCompute(ctx, core.ProfileCandidate, fp, "mistral", "Go developer", pr.extract)
	require.NoError(t, err)
	second, err := c.GetOrCompute(ctx, core.ProfileCandidate, fp, "mistral", "Go developer", pr.extract)
	require.NoError(t, err)

	assert.Equal(t, int32(1), pr.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, fp, second.Fingerprint)
	assert.Equal(t, []string{"Go developer"}, second.Skills)

	// callers own their copies
	first.Skills[0] = "changed"
	third, err := c.GetOrCompute(ctx, core.ProfileCandidate, fp, "mistral", "Go developer", pr.extract)
	require.NoError(t, err)
	assert.Equal(t, "Go developer", third.Skills[0])
}

func TestProfileCache_KindAndModelArePartOfKey(t *testing.T) {
	c := newTestProfileCache(t)
	pr := &countingProfiler{}
	ctx := context.Background()
	fp := core.FingerprintOf("same text")

	cand, err := c.GetOrCompute(ctx, core.ProfileCandidate, fp, "m1", "same text", pr.extract)
	require.NoError(t, err)
	job, err := c.GetOrCompute(ctx, core.ProfileJob, fp, "m1", "same text", pr.extract)
	require.NoError(t, err)
	_, err = c.GetOrCompute(ctx, core.ProfileJob, fp, "m2", "same text", pr.extract)
	require.NoError(t, err)

	assert.Equal(t, int32(3), pr.calls.Load())
	assert.Equal(t, core.ProfileCandidate, cand.Kind)
	assert.Equal(t, core.ProfileJob, job.Kind)
}

func TestProfileCache_FailureNotCached(t *testing.T) {
	c := newTestProfileCache(t)
	ctx := context.Background()
	fp := core.FingerprintOf("cv")

	failing := &countingProfiler{err: errors.New("model offline")}
	_, err := c.GetOrCompute(ctx, core.ProfileCandidate, fp, "m", "cv", failing.extract)
	require.Error(t, err)

	ok := &countingProfiler{}
	p, err := c.GetOrCompute(ctx, core.ProfileCandidate, fp, "m", "cv", ok.extract)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ok.calls.Load())
	assert.Equal(t, core.SeniorityMid, p.Seniority)
}

func TestProfileCache_ConcurrentMissesShareOneCall(t *testing.T) {
	c := newTestProfileCache(t)
	pr := &countingProfiler{delay: 50 * time.Millisecond}
	fp := core.FingerprintOf("cv")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrCompute(context.Background(), core.ProfileCandidate, fp, "m", "cv", pr.extract)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), pr.calls.Load())
}

func TestProfileCache_StatsAndClear(t *testing.T) {
	c := newTestProfileCache(t)
	pr := &countingProfiler{}
	ctx := context.Background()

	for _, text := range []string{"a", "b"} {
		_, err := c.GetOrCompute(ctx, core.ProfileCandidate, core.FingerprintOf(text), "m", text, pr.extract)
		require.NoError(t, err)
	}
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)

	require.NoError(t, c.Clear(ctx))
	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
}

func TestProfileKey(t *testing.T) {
	assert.Equal(t, "prof:candidate:m:f", profileKey(core.ProfileCandidate, "m", "f"))
	assert.Equal(t, "prof:job:m:f", profileKey(core.ProfileJob, "m", "f"))
}
