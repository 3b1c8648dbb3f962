package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/ai/mock"
	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodReply = `{"skills_score": 80, "experience_score": 70, "education_score": 60, "overall_score": 90,
"strengths": [{"label": "Go", "detail": "Five years"}], "gaps": [{"label": "AWS", "severity": "low"}]}`

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func testInput() Input {
	return Input{
		PooledChunks:    []string{"Built Go services at scale.", "Led a team of four.", "BSc Computer Science."},
		Similarities:    []float32{0.9, 0.7, 0.5},
		SimilarityScore: 70,
		JobDescription:  "Senior Go engineer with leadership experience.",
	}
}

func newTestScorer(t *testing.T, completer ai.Completer, opts ...Option) *Scorer {
	t.Helper()
	s, err := New(completer, opts...)
	require.NoError(t, err)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
	s.now = func() time.Time { return fixed }
	return s
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(mock.NewMockCompleter(), WithTokenBudget(0))
	assert.Error(t, err)

	_, err = New(mock.NewMockCompleter(), WithTokenCounter(nil))
	assert.Error(t, err)

	s, err := New(mock.NewMockCompleter())
	require.NoError(t, err)
	assert.Equal(t, DefaultContextTokens-DefaultReservedOutputTokens, s.Budget())
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens(""))
	assert.Equal(t, 1, ApproxTokens("abc"))
	assert.Equal(t, 2, ApproxTokens("abcde"))
	assert.Equal(t, 1, ApproxTokens("日本語"))
}

func TestScore_Success(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.SetResponses(goodReply)
	s := newTestScorer(t, completer)

	result, err := s.Score(context.Background(), testInput())
	require.NoError(t, err)

	// 0.45*80 + 0.35*70 + 0.20*60
	assert.Equal(t, 72.5, result.OverallScore)
	assert.Equal(t, 90.0, result.ReportedScore)
	assert.Equal(t, core.GoodMatch, result.Recommendation)
	assert.Equal(t, 70.0, result.SimilarityScore)
	assert.Equal(t, core.SeverityLow, result.Gaps[0].Severity)
	assert.Equal(t, 0, result.ScoredAt.Nanosecond()%1000)

	require.Equal(t, 1, completer.CallCount())
	req := completer.Requests()[0]
	assert.Equal(t, lenientSystem, req.System)
	assert.True(t, req.JSON)
	assert.Equal(t, DefaultReservedOutputTokens, req.MaxTokens)
	assert.Contains(t, req.Prompt, "[Relevant Section 1] (relevance: 0.90)\nBuilt Go services at scale.")
	assert.Contains(t, req.Prompt, "Skills match (45%)")
	assert.Contains(t, req.Prompt, "Senior Go engineer")
}

func TestScore_CategoryHint(t *testing.T) {
	completer := mock.NewMockCompleter()
	s := newTestScorer(t, completer)

	in := testInput()
	in.CategoryHint = core.SectionExperience
	_, err := s.Score(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, completer.Requests()[0].Prompt, "candidate's experience")
}

func TestScore_StrictRetry(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.SetResponses("I think this candidate is great", goodReply)
	s := newTestScorer(t, completer)

	result, err := s.Score(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, 72.5, result.OverallScore)

	require.Equal(t, 2, completer.CallCount())
	retry := completer.Requests()[1]
	assert.Equal(t, strictSystem, retry.System)
	assert.Contains(t, retry.Prompt, "I think this candidate is great")
}

func TestScore_GivesUpAfterTwoAttempts(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.SetResponses("nope", `{"skills_score": 10}`)
	s := newTestScorer(t, completer)

	_, err := s.Score(context.Background(), testInput())
	require.Error(t, err)

	var scoringErr *core.ScoringError
	require.ErrorAs(t, err, &scoringErr)
	assert.ErrorIs(t, err, core.ErrScoring)
	assert.Equal(t, 2, scoringErr.Attempts)
	assert.Equal(t, `{"skills_score": 10}`, scoringErr.Raw)
	assert.Equal(t, 2, completer.CallCount())
}

func TestScore_CompletionFailure(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.SetCompleteFunc(func(context.Context, ai.CompletionRequest) (string, error) {
		return "", errors.New("connection reset")
	})
	s := newTestScorer(t, completer)

	_, err := s.Score(context.Background(), testInput())
	assert.ErrorIs(t, err, core.ErrCompletionService)
	assert.Equal(t, 1, completer.CallCount())
}

func TestScore_InvalidInput(t *testing.T) {
	s := newTestScorer(t, mock.NewMockCompleter())

	in := testInput()
	in.JobDescription = "  "
	_, err := s.Score(context.Background(), in)
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	in = testInput()
	in.PooledChunks = nil
	_, err = s.Score(context.Background(), in)
	assert.ErrorIs(t, err, core.ErrNoChunks)
}

func TestScore_ContextOverflow(t *testing.T) {
	completer := mock.NewMockCompleter()
	s := newTestScorer(t, completer, WithTokenBudget(50), WithTokenCounter(wordCount))

	in := testInput()
	in.JobDescription = strings.Repeat("requirement ", 100)
	_, err := s.Score(context.Background(), in)
	assert.ErrorIs(t, err, core.ErrContextOverflow)
	assert.ErrorIs(t, err, core.ErrScoring)
	assert.Zero(t, completer.CallCount())
}

func renderedTokens(parts promptParts, texts []string, sims []float32) int {
	sys, user := lenientPrompt(parts, retrieval.FormatContext(texts, sims))
	return wordCount(sys) + wordCount(user)
}

func TestFit_DropsLeastRelevant(t *testing.T) {
	in := testInput()
	parts := promptParts{similarity: in.SimilarityScore, job: in.JobDescription}
	budget := renderedTokens(parts, in.PooledChunks[:1], in.Similarities) + 2

	s := newTestScorer(t, mock.NewMockCompleter(), WithTokenBudget(budget), WithTokenCounter(wordCount))
	f, err := s.fit(lenientPrompt, parts, in.PooledChunks, in.Similarities)
	require.NoError(t, err)

	assert.Equal(t, 1, f.kept)
	assert.False(t, f.truncated)
	assert.Contains(t, f.user, "Built Go services")
	assert.NotContains(t, f.user, "Led a team")
	assert.NotContains(t, f.user, "BSc")
}

func TestFit_TruncatesAtWordBoundary(t *testing.T) {
	chunks := []string{"Built Go services at scale.", "alpha beta gamma delta epsilon"}
	sims := []float32{0.9, 0.8}
	parts := promptParts{similarity: 50, job: "Go engineer"}
	budget := renderedTokens(parts, []string{chunks[0], "alpha beta gamma"}, sims)

	s := newTestScorer(t, mock.NewMockCompleter(), WithTokenBudget(budget), WithTokenCounter(wordCount))
	f, err := s.fit(lenientPrompt, parts, chunks, sims)
	require.NoError(t, err)

	assert.True(t, f.truncated)
	assert.Equal(t, 2, f.kept)
	assert.Contains(t, f.user, "alpha beta gamma\n")
	assert.NotContains(t, f.user, "delta")
}

func TestFit_EverythingFits(t *testing.T) {
	in := testInput()
	parts := promptParts{similarity: in.SimilarityScore, job: in.JobDescription}
	s := newTestScorer(t, mock.NewMockCompleter())

	f, err := s.fit(lenientPrompt, parts, in.PooledChunks, in.Similarities)
	require.NoError(t, err)
	assert.Equal(t, 3, f.kept)
	assert.False(t, f.truncated)
}

func TestWordCuts(t *testing.T) {
	assert.Equal(t, []int{5, 10, 17}, wordCuts("alpha beta  gamma"))
	assert.Equal(t, []int{4}, wordCuts("word  "))
	assert.Empty(t, wordCuts("   "))
}

func TestScore_RequirementsAndProfiles(t *testing.T) {
	completer := mock.NewMockCompleter()
	s := newTestScorer(t, completer)

	in := testInput()
	in.JobDescription = "About the role\nPayments platform.\n\nRequirements\n- Go\n- PostgreSQL"
	in.Candidate = &core.Profile{Kind: core.ProfileCandidate, Skills: []string{"Go"}, YearsExperience: 6}
	in.Job = &core.Profile{Kind: core.ProfileJob, Skills: []string{"Go", "PostgreSQL"}}
	_, err := s.Score(context.Background(), in)
	require.NoError(t, err)

	prompt := completer.Requests()[0].Prompt
	assert.Contains(t, prompt, "[Requirement 1]\nAbout the role\nPayments platform.")
	assert.Contains(t, prompt, "[Requirement 2]\nRequirements\n- Go\n- PostgreSQL")
	assert.Contains(t, prompt, "STRUCTURED RESUME DATA:\n{")
	assert.Contains(t, prompt, "STRUCTURED JOB DATA:\n{")
	assert.Less(t, strings.Index(prompt, "STRUCTURED RESUME DATA"), strings.Index(prompt, "RELEVANT RESUME EXCERPTS"))
}

func TestScore_ProfilesDroppedWhenBudgetIsTight(t *testing.T) {
	in := testInput()
	parts := promptParts{
		similarity: in.SimilarityScore,
		job:        formatRequirements([]string{in.JobDescription}),
	}
	// room for the bare prompt and one excerpt, not for a long profile
	budget := renderedTokens(parts, in.PooledChunks[:1], in.Similarities) + 2
	in.Candidate = &core.Profile{Kind: core.ProfileCandidate, Skills: strings.Fields(strings.Repeat("skill ", 200))}

	completer := mock.NewMockCompleter()
	s := newTestScorer(t, completer, WithTokenBudget(budget), WithTokenCounter(wordCount))
	_, err := s.Score(context.Background(), in)
	require.NoError(t, err)

	prompt := completer.Requests()[0].Prompt
	assert.NotContains(t, prompt, "STRUCTURED RESUME DATA")
	assert.Contains(t, prompt, "Built Go services")
}

func TestFormatRequirements(t *testing.T) {
	assert.Equal(t, "[Requirement 1]\na\n\n[Requirement 2]\nb", formatRequirements([]string{"a", "b"}))
	assert.Empty(t, formatRequirements(nil))
}
