package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Recommendation
	}{
		{0, WeakMatch},
		{44.9, WeakMatch},
		{45, PotentialMatch},
		{64.99, PotentialMatch},
		{65, GoodMatch},
		{79.9, GoodMatch},
		{80, StrongMatch},
		{100, StrongMatch},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RecommendationFor(tt.score), "score %v", tt.score)
	}
}

func TestRecommendationFor_Total(t *testing.T) {
	for s := 0.0; s <= 100.0; s += 0.5 {
		r := RecommendationFor(s)
		assert.Contains(t, []Recommendation{WeakMatch, PotentialMatch, GoodMatch, StrongMatch}, r)
	}
	assert.Equal(t, "strong match", StrongMatch.String())
	assert.Equal(t, "weak match", WeakMatch.String())
}

func TestComposeScore(t *testing.T) {
	assert.Equal(t, 100.0, ComposeScore(CategoryScores{100, 100, 100}))
	assert.Equal(t, 0.0, ComposeScore(CategoryScores{}))
	// 0.45*80 + 0.35*60 + 0.2*50 = 36 + 21 + 10
	assert.Equal(t, 67.0, ComposeScore(CategoryScores{Skills: 80, Experience: 60, Education: 50}))
	assert.Equal(t, 100.0, ComposeScore(CategoryScores{Skills: 500, Experience: 100, Education: 100}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 100.0, Clamp(130, 0, 100))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 100))
}

func TestValidateCategoryScores(t *testing.T) {
	require.NoError(t, ValidateCategoryScores(CategoryScores{10, 20, 30}))
	err := ValidateCategoryScores(CategoryScores{Skills: 10, Experience: 101})
	require.ErrorIs(t, err, ErrInvalidScore)
	assert.Contains(t, err.Error(), "experience")
}

func TestValidateDocument(t *testing.T) {
	require.NoError(t, ValidateDocument(NewDocument("a", "text")))
	assert.ErrorIs(t, ValidateDocument(NewDocument("", "text")), ErrEmptyInput)
	assert.ErrorIs(t, ValidateDocument(NewDocument("a", " \n\t")), ErrEmptyInput)
	assert.ErrorIs(t, ValidateJobDescription(NewJobDescription("")), ErrEmptyInput)
}

func TestScoringError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := error(&ScoringError{Raw: "{", Attempts: 2, Err: cause})
	assert.ErrorIs(t, err, ErrScoring)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2 attempt")

	var se *ScoringError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "{", se.Raw)
}

func TestDocumentError(t *testing.T) {
	err := error(&DocumentError{DocumentID: "cv.txt", Stage: StageEmbed, Err: ErrEmbeddingService})
	assert.ErrorIs(t, err, ErrEmbeddingService)
	assert.True(t, IsTransient(err))
	assert.False(t, IsTransient(ErrEmptyInput))
	assert.Contains(t, err.Error(), `"cv.txt"`)
}
