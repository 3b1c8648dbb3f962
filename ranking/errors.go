package ranking

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmbeddingCacheRequired is returned when an embedding cache is not provided.
	ErrEmbeddingCacheRequired = errors.New("embedding cache required")

	// ErrResultCacheRequired is returned when a result cache is not provided.
	ErrResultCacheRequired = errors.New("result cache required")

	// ErrInvalidMaxAttempts is returned when retry attempts is less than 1.
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
)
