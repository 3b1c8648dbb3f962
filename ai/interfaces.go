package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error wrapping core.ErrEmbeddingService if the backend fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// ModelID identifies the embedding model. Cached vectors are keyed by it
	// so a model change never mixes vectors from different spaces.
	ModelID() string
}

// Completer produces raw text completions.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete runs a single completion and returns the model's raw text.
	// Returns an error wrapping core.ErrCompletionService if the backend fails.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelID identifies the completion model.
	ModelID() string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the text completion service.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
