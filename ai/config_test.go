package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, "mistral:7b-instruct", cfg.CompletionModel)
	assert.Equal(t, 2048, cfg.ContextTokens)
	assert.Equal(t, 500, cfg.MaxOutputTokens)
	assert.Equal(t, 1548, cfg.PromptBudget())
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.CompletionHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithCompletionHost("http://complete:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://complete:9090/v1", cfg.CompletionHost)
	})

	t.Run("with custom models and limits", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithCompletionModel("gpt-4o-mini"),
			WithAPIKey("sk-test"),
			WithContextTokens(8192),
			WithMaxOutputTokens(800),
			WithRequestsPerSecond(2.5, 4),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.CompletionModel)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 7392, cfg.PromptBudget())
		assert.Equal(t, 2.5, cfg.RequestsPerSecond)
		assert.Equal(t, 4, cfg.Burst)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "adds v1", host: "http://localhost:11434", want: "http://localhost:11434/v1"},
		{name: "trailing slash", host: "http://localhost:11434/", want: "http://localhost:11434/v1"},
		{name: "already normalized", host: "http://localhost:11434/v1", want: "http://localhost:11434/v1"},
		{name: "empty stays empty", host: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host), WithAPIKey(""), WithRequestsPerSecond(0, 0))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.CompletionHost)
			assert.Equal(t, "none", cfg.APIKey)
			assert.Equal(t, 1, cfg.Burst)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr string
	}{
		{name: "missing embedding host", opts: []ConfigOption{WithEmbeddingHost("")}, wantErr: "EmbeddingHost"},
		{name: "missing completion host", opts: []ConfigOption{WithCompletionHost("")}, wantErr: "CompletionHost"},
		{name: "missing embedding model", opts: []ConfigOption{WithEmbeddingModel("")}, wantErr: "EmbeddingModel"},
		{name: "missing completion model", opts: []ConfigOption{WithCompletionModel("")}, wantErr: "CompletionModel"},
		{name: "no output tokens", opts: []ConfigOption{WithMaxOutputTokens(0)}, wantErr: "MaxOutputTokens"},
		{name: "window too small", opts: []ConfigOption{WithContextTokens(400)}, wantErr: "ContextTokens"},
		{name: "negative rate", opts: []ConfigOption{WithRequestsPerSecond(-1, 1)}, wantErr: "RequestsPerSecond"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
