package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/poiesic/resumatch"
	"github.com/poiesic/resumatch/ai/openai"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/extract"
	"github.com/poiesic/resumatch/ranking"
	"github.com/urfave/cli/v2"
)

// newProvider builds the AI provider for a command. Tests replace it.
var newProvider = openai.NewProvider

// documentExts are the file types picked up when a directory is ranked.
// Files named explicitly are read whatever their extension.
var documentExts = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
}

func openEngine(c *cli.Context, opts ...resumatch.EngineOption) (*resumatch.Engine, error) {
	s := settingsFrom(c)
	aiConfig := s.aiConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := newProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	base := []resumatch.EngineOption{
		resumatch.WithAIConfig(aiConfig),
		resumatch.WithProvider(provider),
		resumatch.WithLogger(slog.Default()),
	}
	if s.InMemory || s.DB == "" {
		base = append(base, resumatch.WithInMemory())
	}
	if s.ExactTokens {
		base = append(base, resumatch.WithExactTokenCount())
	}
	if s.Profiles {
		base = append(base, resumatch.WithProfiles())
	}

	engine, err := resumatch.NewEngine(s.DB, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return engine, nil
}

// signalContext is canceled on Ctrl-C so a ranking run can stop early and
// still report what it finished.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func readJob(ctx context.Context, path string) (core.JobDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.JobDescription{}, fmt.Errorf("failed to read job description: %w", err)
	}
	text, err := extract.TextExtractor{}.Extract(ctx, data)
	if err != nil {
		return core.JobDescription{}, fmt.Errorf("job description %s: %w", path, err)
	}
	return core.NewJobDescription(text), nil
}

// collectDocuments reads every named file, and the documentExts files
// directly inside every named directory. The path is the document ID.
// A file that cannot be read is kept with its ReadErr so it fails alone.
func collectDocuments(paths []string) ([]core.RawDocument, error) {
	var docs []core.RawDocument
	seen := make(map[string]bool)

	add := func(path string) {
		path = filepath.Clean(path)
		if seen[path] {
			slog.Debug("skipping repeated résumé", "path", path)
			return
		}
		seen[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read résumé", "path", path, "err", err)
			docs = append(docs, core.RawDocument{ID: path, ReadErr: err})
			return
		}
		docs = append(docs, core.RawDocument{ID: path, Data: data})
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			add(path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !documentExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			add(filepath.Join(path, entry.Name()))
		}
	}
	return docs, nil
}

func matchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one résumé file, got %d arguments", c.NArg())
	}
	ctx, stop := signalContext(c)
	defer stop()

	job, err := readJob(ctx, c.String("job"))
	if err != nil {
		return err
	}
	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read résumé: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.MatchRaw(ctx, core.RawDocument{ID: path, Data: data}, job)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, newResultView(result))
	}
	renderResult(c.App.Writer, result)
	return nil
}

func rankCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one résumé file or directory is required")
	}

	pooling, err := core.ParsePoolingStrategy(c.String("pooling"))
	if err != nil {
		return err
	}
	hint := core.SectionNone
	if name := c.String("hint"); name != "" {
		if hint = core.ParseSection(name); hint == core.SectionNone {
			return fmt.Errorf("unknown résumé section %q", name)
		}
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	ctx, stop := signalContext(c)
	defer stop()

	job, err := readJob(ctx, c.String("job"))
	if err != nil {
		return err
	}
	docs, err := collectDocuments(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no résumés found")
	}

	pipelineOpts := []ranking.Option{
		ranking.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
	}
	if workers := c.Int("workers"); workers > 0 {
		pipelineOpts = append(pipelineOpts, ranking.WithPoolSize(workers))
	}
	if !c.Bool("quiet") {
		pipelineOpts = append(pipelineOpts, ranking.WithMonitor(newProgressMonitor(c.App.ErrWriter)))
	}

	engine, err := openEngine(c,
		resumatch.WithTopK(c.Int("top-k")),
		resumatch.WithPooling(pooling),
		resumatch.WithCategoryHint(hint),
		resumatch.WithPipelineOptions(pipelineOpts...),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	batch, err := engine.RankRaw(ctx, docs, job)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		fmt.Fprintln(c.App.ErrWriter, "Interrupted, showing partial results")
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, newBatchView(batch))
	}
	renderBatch(c.App.Writer, batch)
	return nil
}

func cacheStatsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.CacheStats(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}
	renderStats(c.App.Writer, stats)
	return nil
}

func cacheClearCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.ClearCache(c.Context); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Cache cleared")
	return nil
}
