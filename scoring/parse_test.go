package scoring

import (
	"testing"

	"github.com/poiesic/resumatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```\n"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1} `))
}

func TestOutermostObject(t *testing.T) {
	obj, ok := outermostObject(`Sure! Here you go: {"a": {"b": "}"}} trailing`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": "}"}}`, obj)

	_, ok = outermostObject(`{"a": 1`)
	assert.False(t, ok)

	_, ok = outermostObject("no json here")
	assert.False(t, ok)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"missing opening quote", `{ skills_score": 80, experience_score": 70}`, `{ "skills_score": 80, "experience_score": 70}`},
		{"trailing comma", `{"a": [1, 2,], "b": 3,}`, `{"a": [1, 2], "b": 3}`},
		{"strings untouched", `{"detail": "a, b\": c"}`, `{"detail": "a, b\": c"}`},
		{"valid input", `{"a": {"b": 1}}`, `{"a": {"b": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestParseReply(t *testing.T) {
	raw := "```json\n" + `{
  "skills_score": "85",
  "experience_score": 70.5,
  "education_score": "60%",
  "final_score": 74,
  "strengths": ["Go", {"name": "Kafka", "description": "Ran clusters"}, ""],
  "gaps": [{"label": "AWS", "severity": "HIGH"}, "Kubernetes"]
}` + "\n```"

	a, err := parseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryScores{Skills: 85, Experience: 70.5, Education: 60}, a.categories)
	assert.Equal(t, 74.0, a.reported)
	assert.Equal(t, []core.Strength{{Label: "Go"}, {Label: "Kafka", Detail: "Ran clusters"}}, a.strengths)
	require.Len(t, a.gaps, 2)
	assert.Equal(t, core.SeverityHigh, a.gaps[0].Severity)
	assert.Equal(t, core.SeverityMedium, a.gaps[1].Severity)
}

func TestParseReply_Repaired(t *testing.T) {
	a, err := parseReply(`{skills_score": 50, experience_score": 40, "education_score": 30,}`)
	require.NoError(t, err)
	assert.Equal(t, 50.0, a.categories.Skills)
	assert.Zero(t, a.reported)
}

func TestParseReply_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"prose", "The candidate looks strong.", errNoObject},
		{"missing category", `{"skills_score": 50, "experience_score": 40}`, errMissingField},
		{"null category", `{"skills_score": 50, "experience_score": 40, "education_score": null}`, errMissingField},
		{"out of range", `{"skills_score": 150, "experience_score": 40, "education_score": 30}`, core.ErrInvalidScore},
		{"not a number", `{"skills_score": "high", "experience_score": 40, "education_score": 30}`, errBadNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseReply(tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseReply_BadOverallIgnored(t *testing.T) {
	a, err := parseReply(`{"skills_score": 50, "experience_score": 40, "education_score": 30, "overall_score": 400}`)
	require.NoError(t, err)
	assert.Zero(t, a.reported)
}
