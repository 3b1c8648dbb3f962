package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/chunker"
	"github.com/poiesic/resumatch/core"
)

// maxAttempts is the lenient attempt plus one strict retry.
const maxAttempts = 2

// Input is everything the scorer needs for one resume.
type Input struct {
	// PooledChunks are the selected excerpts, most relevant first.
	PooledChunks []string
	// Similarities align with PooledChunks.
	Similarities []float32
	// SimilarityScore is the pooled similarity on a 0-100 scale.
	SimilarityScore float64
	JobDescription  string
	// CategoryHint optionally steers the model's attention.
	CategoryHint core.Section
	// Candidate and Job are optional structured profiles shown ahead of the
	// excerpts. They are left out when the budget cannot hold them.
	Candidate *core.Profile
	Job       *core.Profile
}

// Scorer produces a MatchResult from retrieved excerpts. Safe for concurrent use.
type Scorer struct {
	completer ai.Completer
	budget    int
	maxOutput int
	count     TokenCounter
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Scorer backed by completer.
func New(completer ai.Completer, opts ...Option) (*Scorer, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	s := &Scorer{
		completer: completer,
		budget:    DefaultContextTokens - DefaultReservedOutputTokens,
		maxOutput: DefaultReservedOutputTokens,
		count:     ApproxTokens,
		logger:    slog.Default().With("component", "scorer"),
		now:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Budget returns the prompt token budget.
func (s *Scorer) Budget() int {
	return s.budget
}

// Score asks the model to assess the excerpts against the job description.
//
// Replies that cannot be parsed are retried once with a stricter prompt.
// After that the result is a *core.ScoringError. Completion failures are
// returned as they are, wrapping core.ErrCompletionService.
func (s *Scorer) Score(ctx context.Context, in Input) (*core.MatchResult, error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return nil, fmt.Errorf("%w: job description", core.ErrEmptyInput)
	}
	if len(in.PooledChunks) == 0 {
		return nil, core.ErrNoChunks
	}
	sims := make([]float32, len(in.PooledChunks))
	copy(sims, in.Similarities)

	parts := promptParts{
		similarity:       in.SimilarityScore,
		job:              formatRequirements(chunker.Requirements(in.JobDescription, chunker.DefaultRequirementChars)),
		hint:             in.CategoryHint,
		candidateProfile: renderProfile(in.Candidate),
		jobProfile:       renderProfile(in.Job),
	}

	var lastRaw string
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		build := promptBuilder(lenientPrompt)
		if attempt > 1 {
			build = strictPrompt
			parts.previous = lastRaw
		}

		prompt, err := s.fit(build, parts, in.PooledChunks, sims)
		if errors.Is(err, core.ErrContextOverflow) && parts.hasProfiles() {
			s.logger.Debug("structured profiles do not fit the budget, leaving them out", "budget", s.budget)
			parts.candidateProfile, parts.jobProfile = "", ""
			prompt, err = s.fit(build, parts, in.PooledChunks, sims)
		}
		if err != nil {
			return nil, &core.ScoringError{Raw: lastRaw, Attempts: attempt - 1, Err: err}
		}
		if prompt.kept < len(in.PooledChunks) || prompt.truncated {
			s.logger.Debug("trimmed excerpts to fit budget",
				"kept", prompt.kept, "of", len(in.PooledChunks), "truncated", prompt.truncated, "budget", s.budget)
		}

		raw, err := s.completer.Complete(ctx, ai.CompletionRequest{
			System:      prompt.system,
			Prompt:      prompt.user,
			MaxTokens:   s.maxOutput,
			Temperature: 0,
			JSON:        true,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errors.Is(err, core.ErrCompletionService) {
				err = fmt.Errorf("%w: %w", core.ErrCompletionService, err)
			}
			return nil, err
		}

		a, err := parseReply(raw)
		if err == nil {
			return s.result(a, in), nil
		}
		s.logger.Warn("unparseable model reply", "attempt", attempt, "err", err)
		lastRaw, lastErr = raw, err
	}
	return nil, &core.ScoringError{Raw: lastRaw, Attempts: maxAttempts, Err: lastErr}
}

func (s *Scorer) result(a *assessment, in Input) *core.MatchResult {
	overall := core.ComposeScore(a.categories)
	return &core.MatchResult{
		OverallScore:    overall,
		ReportedScore:   a.reported,
		SimilarityScore: in.SimilarityScore,
		CategoryScores:  a.categories,
		Strengths:       a.strengths,
		Gaps:            a.gaps,
		Recommendation:  core.RecommendationFor(overall),
		ScoredAt:        s.now().UTC().Truncate(time.Microsecond),
	}
}
