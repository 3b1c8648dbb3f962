// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Completer,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider().(*mock.MockProvider)
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Scripted completions, returned in order
//	mockProvider.GetMockCompleter().SetResponses(`{"skills_score": 80, ...}`)
//
//	// Check call counts
//	count := mockProvider.GetMockCompleter().CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockCompleter: Returns a fixed, valid scoring response
//   - MockProvider: Aggregates mock embedder and completer
//
// All mocks are safe for concurrent use.
package mock
