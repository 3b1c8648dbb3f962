package openai

import "github.com/tmc/langchaingo/llms"

// TokenCounter returns a tiktoken based counter for model. Unknown models
// fall back to the gpt2 encoding. The encoding tables are fetched and
// cached on first use.
func TokenCounter(model string) func(string) int {
	return func(text string) int {
		return llms.CountTokens(model, text)
	}
}
