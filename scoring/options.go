package scoring

import (
	"errors"
	"log/slog"
	"unicode/utf8"
)

const (
	// DefaultContextTokens is the model context window assumed when no
	// budget is configured.
	DefaultContextTokens = 2048

	// DefaultReservedOutputTokens is held back from the window for the reply.
	DefaultReservedOutputTokens = 500
)

// TokenCounter estimates how many tokens text occupies.
type TokenCounter func(text string) int

// ApproxTokens estimates one token per four runes, rounded up.
func ApproxTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithTokenBudget sets the prompt budget (system plus user message) in tokens.
func WithTokenBudget(n int) Option {
	return func(s *Scorer) error {
		if n <= 0 {
			return errors.New("token budget must be positive")
		}
		s.budget = n
		return nil
	}
}

// WithReservedOutputTokens sets the completion length requested from the model.
func WithReservedOutputTokens(n int) Option {
	return func(s *Scorer) error {
		if n <= 0 {
			return errors.New("reserved output tokens must be positive")
		}
		s.maxOutput = n
		return nil
	}
}

// WithTokenCounter replaces the default rune based estimate.
func WithTokenCounter(counter TokenCounter) Option {
	return func(s *Scorer) error {
		if counter == nil {
			return errors.New("token counter cannot be nil")
		}
		s.count = counter
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger.With("component", "scorer")
		return nil
	}
}
