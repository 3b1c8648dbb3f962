package ai

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	// System is the system prompt. Optional.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens caps the completion length. Zero uses the provider default.
	MaxTokens int

	// Temperature for sampling. Scoring uses 0.
	Temperature float64

	// JSON asks the backend to constrain output to a JSON object when it
	// supports doing so.
	JSON bool
}
