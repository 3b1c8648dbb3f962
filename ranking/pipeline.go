package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/cache"
	"github.com/poiesic/resumatch/chunker"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/extract"
	"github.com/poiesic/resumatch/retrieval"
	"github.com/poiesic/resumatch/scoring"
	"golang.org/x/sync/errgroup"
)

// Pipeline orchestrates matching documents against a job description.
// It is safe for concurrent use; all Rank calls share one worker pool.
type Pipeline struct {
	embedder         ai.Embedder
	embeddings       *cache.EmbeddingCache
	results          *cache.ResultCache
	profiles         *cache.ProfileCache
	profiler         *scoring.Profiler
	scorer           *scoring.Scorer
	chunker          *chunker.Chunker
	extractor        extract.Extractor
	pool             *ants.Pool
	topK             int
	pooling          core.PoolingStrategy
	hint             core.Section
	embedConcurrency int
	retryAttempts    int
	retryDelay       time.Duration
	monitor          Monitor
	logger           *slog.Logger
}

// NewPipeline creates a new ranking pipeline.
func NewPipeline(
	provider ai.AIProvider,
	embeddings *cache.EmbeddingCache,
	results *cache.ResultCache,
	opts ...Option,
) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if embeddings == nil {
		return nil, ErrEmbeddingCacheRequired
	}
	if results == nil {
		return nil, ErrResultCacheRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder:         provider.Embedder(),
		embeddings:       embeddings,
		results:          results,
		chunker:          chunker.New(),
		extractor:        extract.TextExtractor{},
		pool:             pool,
		topK:             retrieval.DefaultTopK,
		pooling:          core.PoolingMax,
		embedConcurrency: 4,
		retryAttempts:    1,
		monitor:          &noopMonitor{},
		logger:           slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	base := p.logger
	p.logger = base.With("component", "ranking")

	if p.scorer == nil {
		p.scorer, err = scoring.New(provider.Completer(), scoring.WithLogger(base))
		if err != nil {
			p.Release()
			return nil, err
		}
	}
	if p.profiles != nil {
		p.profiler, err = scoring.NewProfiler(provider.Completer(), scoring.WithProfileLogger(base))
		if err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// TopK returns the number of chunks retrieved per document.
func (p *Pipeline) TopK() int {
	return p.topK
}

// Pooling returns the configured pooling strategy.
func (p *Pipeline) Pooling() core.PoolingStrategy {
	return p.pooling
}

// MatchOne scores a single document against job. Results are served from
// the result cache when the same (document, job) content was scored before.
//
// Failures are returned as *core.DocumentError naming the failed stage.
// The returned result belongs to the caller.
func (p *Pipeline) MatchOne(ctx context.Context, doc core.Document, job core.JobDescription) (*core.MatchResult, error) {
	start := time.Now()

	if err := core.ValidateJobDescription(job); err != nil {
		return nil, err
	}
	if job.Fingerprint == "" {
		job.Fingerprint = core.FingerprintOf(job.Text)
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, &core.DocumentError{DocumentID: doc.ID, Stage: core.StageChunk, Err: err}
	}
	if doc.Fingerprint == "" {
		doc.Fingerprint = core.FingerprintOf(doc.Text)
	}

	result, hit, err := p.results.GetOrCompute(ctx, doc.Fingerprint, job.Fingerprint, func(ctx context.Context) (*core.MatchResult, error) {
		return p.compute(ctx, doc, job)
	})
	if err != nil {
		var docErr *core.DocumentError
		if errors.As(err, &docErr) {
			// A shared computation may have been started for another
			// document with identical content.
			return nil, &core.DocumentError{DocumentID: doc.ID, Stage: docErr.Stage, Err: docErr.Err}
		}
		return nil, &core.DocumentError{DocumentID: doc.ID, Stage: core.StageCache, Err: err}
	}

	result.DocumentID = doc.ID
	result.CacheHit = hit
	result.ProcessingTime = time.Since(start)

	p.logger.Debug("document matched",
		"document", doc.ID, "score", result.OverallScore, "cacheHit", hit, "elapsed", result.ProcessingTime)
	return result, nil
}

// MatchRaw extracts text from raw and matches it like MatchOne.
func (p *Pipeline) MatchRaw(ctx context.Context, raw core.RawDocument, job core.JobDescription) (*core.MatchResult, error) {
	if raw.ReadErr != nil {
		return nil, &core.DocumentError{DocumentID: raw.ID, Stage: core.StageExtract,
			Err: fmt.Errorf("%w: %w", core.ErrUnreadableDocument, raw.ReadErr)}
	}
	text, err := p.extractor.Extract(ctx, raw.Data)
	if err != nil {
		return nil, &core.DocumentError{DocumentID: raw.ID, Stage: core.StageExtract, Err: err}
	}
	return p.MatchOne(ctx, core.NewDocument(raw.ID, text), job)
}

// compute runs the uncached path: chunk, embed, retrieve, profile, score.
func (p *Pipeline) compute(ctx context.Context, doc core.Document, job core.JobDescription) (*core.MatchResult, error) {
	fail := func(stage core.Stage, err error) (*core.MatchResult, error) {
		return nil, &core.DocumentError{DocumentID: doc.ID, Stage: stage, Err: err}
	}

	chunks, err := p.chunker.Chunk(doc.ID, doc.Text)
	if err != nil {
		return fail(core.StageChunk, err)
	}

	// The job description rides along as the last text so its vector is
	// resolved concurrently with the chunks.
	texts := make([]string, 0, len(chunks)+1)
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	texts = append(texts, job.Text)

	vectors, err := p.embeddings.EmbedAll(ctx, p.embedder.ModelID(), texts, p.embedConcurrency, p.embed)
	if err != nil {
		return fail(core.StageEmbed, err)
	}
	jobVector := vectors[len(vectors)-1]
	vectors = vectors[:len(vectors)-1]

	var retrieveOpts []retrieval.Option
	if p.hint != core.SectionNone {
		retrieveOpts = append(retrieveOpts, retrieval.WithSectionHint(p.hint))
	}
	retrieved, err := retrieval.Retrieve(jobVector, chunks, vectors, p.topK, p.pooling, retrieveOpts...)
	if err != nil {
		return fail(core.StageRetrieve, err)
	}

	candidate, jobProfile := p.resolveProfiles(ctx, doc, job)

	var result *core.MatchResult
	err = retryTransient(ctx, p.logger, p.retryAttempts, p.retryDelay, func() error {
		var scoreErr error
		result, scoreErr = p.scorer.Score(ctx, scoring.Input{
			PooledChunks:    retrieved.PooledChunks,
			Similarities:    retrieved.Similarities,
			SimilarityScore: retrieved.SimilarityScore,
			JobDescription:  job.Text,
			CategoryHint:    p.hint,
			Candidate:       candidate,
			Job:             jobProfile,
		})
		return scoreErr
	})
	if err != nil {
		return fail(core.StageScore, err)
	}

	result.SelectedChunks = retrieved.SelectedChunkIndices
	return result, nil
}

// resolveProfiles fetches both structured profiles concurrently when
// profiling is enabled. A profile that cannot be extracted is left out and
// scoring goes ahead on the excerpts alone.
func (p *Pipeline) resolveProfiles(ctx context.Context, doc core.Document, job core.JobDescription) (candidate, jobProfile *core.Profile) {
	if p.profiles == nil {
		return nil, nil
	}

	resolve := func(kind core.ProfileKind, fp core.Fingerprint, text string, out **core.Profile) func() error {
		return func() error {
			profile, err := p.profiles.GetOrCompute(ctx, kind, fp, p.profiler.ModelID(), text, p.extractProfile)
			if err != nil {
				p.logger.Warn("profile unavailable, scoring without it", "document", doc.ID, "kind", kind, "err", err)
				return nil
			}
			*out = profile
			return nil
		}
	}

	var g errgroup.Group
	g.Go(resolve(core.ProfileCandidate, doc.Fingerprint, doc.Text, &candidate))
	g.Go(resolve(core.ProfileJob, job.Fingerprint, job.Text, &jobProfile))
	_ = g.Wait()
	return candidate, jobProfile
}

func (p *Pipeline) extractProfile(ctx context.Context, kind core.ProfileKind, text string) (*core.Profile, error) {
	var profile *core.Profile
	err := retryTransient(ctx, p.logger, p.retryAttempts, p.retryDelay, func() error {
		var extractErr error
		profile, extractErr = p.profiler.Extract(ctx, kind, text)
		return extractErr
	})
	return profile, err
}

func (p *Pipeline) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retryTransient(ctx, p.logger, p.retryAttempts, p.retryDelay, func() error {
		var embedErr error
		vector, embedErr = p.embedder.EmbedText(ctx, text)
		return embedErr
	})
	return vector, err
}

type task struct {
	id  string
	run func(ctx context.Context) (*core.MatchResult, error)
}

// Rank matches every document against job and orders the successes by
// overall score, highest first. Ties keep submission order.
//
// A failing document is recorded in Failures and never fails the batch.
// Only the first document with a given ID is matched; later ones are
// recorded under DuplicateKey with core.ErrDuplicateDocument.
// When ctx is canceled Rank stops waiting and returns what has finished so
// far; unfinished documents are recorded as failures with the context error.
// Work already running continues in the background and may still populate
// the caches.
func (p *Pipeline) Rank(ctx context.Context, docs []core.Document, job core.JobDescription) (*core.BatchRankingResult, error) {
	tasks := make([]task, len(docs))
	for i, doc := range docs {
		tasks[i] = task{id: doc.ID, run: func(ctx context.Context) (*core.MatchResult, error) {
			return p.MatchOne(ctx, doc, job)
		}}
	}
	return p.rank(ctx, job, tasks)
}

// RankRaw is Rank for documents that still need text extraction. An
// unreadable document fails alone.
func (p *Pipeline) RankRaw(ctx context.Context, docs []core.RawDocument, job core.JobDescription) (*core.BatchRankingResult, error) {
	tasks := make([]task, len(docs))
	for i, doc := range docs {
		tasks[i] = task{id: doc.ID, run: func(ctx context.Context) (*core.MatchResult, error) {
			return p.MatchRaw(ctx, doc, job)
		}}
	}
	return p.rank(ctx, job, tasks)
}

type outcome struct {
	index  int
	result *core.MatchResult
	err    error
}

func (p *Pipeline) rank(ctx context.Context, job core.JobDescription, tasks []task) (*core.BatchRankingResult, error) {
	if err := core.ValidateJobDescription(job); err != nil {
		return nil, err
	}
	if job.Fingerprint == "" {
		job.Fingerprint = core.FingerprintOf(job.Text)
	}

	start := time.Now()
	batch := &core.BatchRankingResult{
		RunID:      uuid.NewString(),
		TotalCount: len(tasks),
		Ranked:     []*core.MatchResult{},
		Failures:   make(map[string]string),
	}
	logger := p.logger.With("run", batch.RunID)

	// Only the first document with a given ID runs; repeats fail alone.
	seen := make(map[string]struct{}, len(tasks))
	unique := tasks[:0:0]
	for i, t := range tasks {
		if _, dup := seen[t.id]; dup {
			key := DuplicateKey(t.id, i)
			batch.Failures[key] = fmt.Errorf("%w: %q", core.ErrDuplicateDocument, t.id).Error()
			logger.Warn("document failed", "document", key, "err", core.ErrDuplicateDocument)
			continue
		}
		seen[t.id] = struct{}{}
		unique = append(unique, t)
	}
	tasks = unique

	p.monitor.BatchStarted(batch.RunID, len(tasks))
	logger.Info("ranking started", "documents", len(tasks), "topK", p.topK, "pooling", p.pooling)

	// Buffered so workers that finish after Rank stopped waiting never block.
	outcomes := make(chan outcome, len(tasks))
	go p.submit(ctx, tasks, outcomes)

	results := make([]*core.MatchResult, len(tasks))
	done := make([]bool, len(tasks))
	record := func(o outcome) {
		done[o.index] = true
		if o.err != nil {
			batch.Failures[tasks[o.index].id] = o.err.Error()
			logger.Warn("document failed", "document", tasks[o.index].id, "err", o.err)
			return
		}
		results[o.index] = o.result
	}

collect:
	for remaining := len(tasks); remaining > 0; remaining-- {
		select {
		case o := <-outcomes:
			record(o)
		case <-ctx.Done():
			logger.Warn("ranking canceled", "err", ctx.Err())
			// Keep whatever already finished.
			for drained := false; !drained; {
				select {
				case o := <-outcomes:
					record(o)
				default:
					drained = true
				}
			}
			for i, t := range tasks {
				if !done[i] {
					batch.Failures[t.id] = ctx.Err().Error()
				}
			}
			break collect
		}
	}

	var total time.Duration
	for _, r := range results {
		if r != nil {
			batch.Ranked = append(batch.Ranked, r)
			total += r.ProcessingTime
		}
	}
	slices.SortStableFunc(batch.Ranked, func(a, b *core.MatchResult) int {
		return cmp.Compare(b.OverallScore, a.OverallScore)
	})

	batch.TotalTime = time.Since(start)
	if n := len(batch.Ranked); n > 0 {
		batch.AverageTime = total / time.Duration(n)
	}

	logger.Info("ranking finished",
		"ranked", len(batch.Ranked), "failed", len(batch.Failures), "elapsed", batch.TotalTime)
	p.monitor.BatchFinished(batch)
	return batch, nil
}

// DuplicateKey is the Failures key for a repeated document ID found at
// position (zero based) in the submitted batch.
func DuplicateKey(id string, position int) string {
	return fmt.Sprintf("%s#%d", id, position)
}

// submit feeds tasks to the pool, blocking while every worker is busy.
// Tasks not yet started when ctx is canceled report the context error
// without running.
func (p *Pipeline) submit(ctx context.Context, tasks []task, outcomes chan<- outcome) {
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			outcomes <- outcome{index: i, err: err}
			continue
		}
		err := p.pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				outcomes <- outcome{index: i, err: err}
				return
			}
			p.monitor.DocumentStarted(t.id)
			r, err := t.run(ctx)
			p.monitor.DocumentFinished(t.id, r, err)
			outcomes <- outcome{index: i, result: r, err: err}
		})
		if err != nil {
			outcomes <- outcome{index: i, err: fmt.Errorf("submit: %w", err)}
		}
	}
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
