// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package resumatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/ai/openai"
	"github.com/poiesic/resumatch/cache"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/ranking"
	"github.com/poiesic/resumatch/retrieval"
	"github.com/poiesic/resumatch/scoring"
	"github.com/poiesic/resumatch/storage"
	"github.com/poiesic/resumatch/storage/badger"
)

// Engine wires storage, AI services, caches and the ranking pipeline.
type Engine struct {
	backend    *badger.Backend
	provider   ai.AIProvider
	embeddings *cache.EmbeddingCache
	results    *cache.ResultCache
	profiles   *cache.ProfileCache
	pipeline   *ranking.Pipeline
	logger     *slog.Logger
}

// CacheStats reports the size of each cache.
type CacheStats struct {
	Embeddings storage.Stats
	Results    storage.Stats
	Profiles   storage.Stats
	TotalBytes int64
	TotalMB    float64
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig       *ai.Config
	provider       ai.AIProvider
	inMemory       bool
	exactTokens    bool
	profiles       bool
	topK           int
	pooling        core.PoolingStrategy
	hint           core.Section
	computeTimeout time.Duration
	pipelineOpts   []ranking.Option
	logger         *slog.Logger
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible
// provider. Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the caches in memory. The path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithExactTokenCount counts prompt tokens with tiktoken instead of the
// rune based estimate. Encoding tables are downloaded on first use.
func WithExactTokenCount() EngineOption {
	return func(o *engineOptions) {
		o.exactTokens = true
	}
}

// WithProfiles extracts a structured profile from every résumé and job
// description and gives both to the scorer. Each profile costs one
// completion the first time its text is seen.
func WithProfiles() EngineOption {
	return func(o *engineOptions) {
		o.profiles = true
	}
}

// WithTopK sets how many chunks are retrieved per document.
func WithTopK(k int) EngineOption {
	return func(o *engineOptions) {
		o.topK = k
	}
}

// WithPooling sets the chunk pooling strategy.
func WithPooling(strategy core.PoolingStrategy) EngineOption {
	return func(o *engineOptions) {
		o.pooling = strategy
	}
}

// WithCategoryHint favors one résumé section during retrieval and scoring.
func WithCategoryHint(section core.Section) EngineOption {
	return func(o *engineOptions) {
		o.hint = section
	}
}

// WithComputeTimeout bounds a single cached computation.
func WithComputeTimeout(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.computeTimeout = d
	}
}

// WithPipelineOptions passes extra options to the ranking pipeline, such as
// pool size, retries or a monitor.
func WithPipelineOptions(opts ...ranking.Option) EngineOption {
	return func(o *engineOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens (or creates) the cache database at path and wires the
// pipeline.
func NewEngine(path string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		topK:     retrieval.DefaultTopK,
		pooling:  core.PoolingMax,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		if options.provider != nil {
			options.provider.Close()
		}
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	e := &Engine{
		backend:  backend,
		provider: provider,
		logger:   options.logger.With("component", "engine"),
	}
	if err := e.wire(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) wire(options *engineOptions) error {
	cacheOpts := []cache.Option{cache.WithLogger(options.logger)}
	if options.computeTimeout > 0 {
		cacheOpts = append(cacheOpts, cache.WithComputeTimeout(options.computeTimeout))
	}

	var err error
	e.embeddings, err = cache.NewEmbeddingCache(e.backend, cacheOpts...)
	if err != nil {
		return err
	}
	e.results, err = cache.NewResultCache(e.backend,
		append(cacheOpts, cache.WithNamespace(resultNamespace(e.provider, options)))...)
	if err != nil {
		return err
	}

	e.profiles, err = cache.NewProfileCache(e.backend, cacheOpts...)
	if err != nil {
		return err
	}

	completionModel := e.provider.Completer().ModelID()
	scorerOpts := []scoring.Option{
		scoring.WithTokenBudget(options.aiConfig.PromptBudget()),
		scoring.WithReservedOutputTokens(options.aiConfig.MaxOutputTokens),
		scoring.WithLogger(options.logger),
	}
	if options.exactTokens {
		scorerOpts = append(scorerOpts, scoring.WithTokenCounter(openai.TokenCounter(completionModel)))
	}
	scorer, err := scoring.New(e.provider.Completer(), scorerOpts...)
	if err != nil {
		return err
	}

	pipelineOpts := append([]ranking.Option{
		ranking.WithTopK(options.topK),
		ranking.WithPooling(options.pooling),
		ranking.WithCategoryHint(options.hint),
		ranking.WithScorer(scorer),
		ranking.WithLogger(options.logger),
	}, options.pipelineOpts...)
	if options.profiles {
		pipelineOpts = append(pipelineOpts, ranking.WithProfiles(e.profiles))
	}
	e.pipeline, err = ranking.NewPipeline(e.provider, e.embeddings, e.results, pipelineOpts...)
	return err
}

// resultNamespace separates stored results produced under different models
// or retrieval settings, since any of them changes the outcome.
func resultNamespace(provider ai.AIProvider, options *engineOptions) string {
	ns := fmt.Sprintf("%s|%s|k%d|%s",
		provider.Completer().ModelID(), provider.Embedder().ModelID(), options.topK, options.pooling)
	if options.hint != core.SectionNone {
		ns += "|" + options.hint.String()
	}
	if options.profiles {
		ns += "|profiles"
	}
	return ns
}

// Close releases the pipeline, the AI provider and the database.
func (e *Engine) Close() error {
	if e.pipeline != nil {
		e.pipeline.Release()
	}
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Pipeline returns the ranking pipeline.
func (e *Engine) Pipeline() *ranking.Pipeline {
	return e.pipeline
}

// Match scores one document against job.
func (e *Engine) Match(ctx context.Context, doc core.Document, job core.JobDescription) (*core.MatchResult, error) {
	return e.pipeline.MatchOne(ctx, doc, job)
}

// MatchRaw is Match for a document that still needs text extraction.
func (e *Engine) MatchRaw(ctx context.Context, raw core.RawDocument, job core.JobDescription) (*core.MatchResult, error) {
	return e.pipeline.MatchRaw(ctx, raw, job)
}

// Rank scores docs against job and orders them best first.
func (e *Engine) Rank(ctx context.Context, docs []core.Document, job core.JobDescription) (*core.BatchRankingResult, error) {
	return e.pipeline.Rank(ctx, docs, job)
}

// RankRaw is Rank for documents that still need text extraction.
func (e *Engine) RankRaw(ctx context.Context, docs []core.RawDocument, job core.JobDescription) (*core.BatchRankingResult, error) {
	return e.pipeline.RankRaw(ctx, docs, job)
}

// CacheStats reports entry counts and sizes of every cache.
func (e *Engine) CacheStats(ctx context.Context) (*CacheStats, error) {
	embeddings, err := e.embeddings.Stats(ctx)
	if err != nil {
		return nil, err
	}
	results, err := e.results.Stats(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := e.profiles.Stats(ctx)
	if err != nil {
		return nil, err
	}
	total := embeddings.Add(results).Add(profiles)
	return &CacheStats{
		Embeddings: embeddings,
		Results:    results,
		Profiles:   profiles,
		TotalBytes: total.Bytes,
		TotalMB:    total.MB(),
	}, nil
}

// ClearCache removes every cached embedding, result and profile.
func (e *Engine) ClearCache(ctx context.Context) error {
	if err := e.embeddings.Clear(ctx); err != nil {
		return err
	}
	if err := e.results.Clear(ctx); err != nil {
		return err
	}
	if err := e.profiles.Clear(ctx); err != nil {
		return err
	}
	e.logger.Info("cache cleared")
	return nil
}
