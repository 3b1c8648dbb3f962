package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/poiesic/resumatch/ai"
)

// DefaultResponse is a well-formed scoring reply.
const DefaultResponse = `{
  "overall_score": 72,
  "skills_score": 80,
  "experience_score": 70,
  "education_score": 60,
  "strengths": [{"label": "Go", "detail": "Five years of production Go"}],
  "gaps": [{"label": "Kubernetes", "detail": "No cluster operations", "severity": "medium"}],
  "recommendation": "good match"
}`

// CompleteFunc replaces the scripted behavior of Complete.
type CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (string, error)

// MockCompleter is a test double for ai.Completer. Behavior set with
// SetCompleteFunc or SetResponses may be changed while calls are in flight.
type MockCompleter struct {
	// Model is returned by ModelID.
	Model string

	callCount atomic.Int64

	mu        sync.Mutex
	requests  []ai.CompletionRequest
	fn        CompleteFunc
	responses []string
}

// NewMockCompleter creates a mock completer returning DefaultResponse.
// Note: Returns concrete type to allow test assertions via GetMockCompleter().
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{Model: "mock-complete"}
}

// Complete records the request and returns the next scripted response.
func (m *MockCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	n := int(m.callCount.Add(1))

	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn, responses := m.fn, m.responses
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(responses) == 0 {
		return DefaultResponse, nil
	}
	return responses[min(n, len(responses))-1], nil
}

// SetCompleteFunc installs fn as the Complete behavior. A nil fn falls back
// to the scripted responses.
func (m *MockCompleter) SetCompleteFunc(fn CompleteFunc) {
	m.mu.Lock()
	m.fn = fn
	m.mu.Unlock()
}

// SetResponses scripts the replies returned when no CompleteFunc is set.
// They are returned in call order and the last one repeats once the list is
// exhausted. No responses means DefaultResponse.
func (m *MockCompleter) SetResponses(responses ...string) {
	m.mu.Lock()
	m.responses = append([]string(nil), responses...)
	m.mu.Unlock()
}

// ModelID returns the configured model name.
func (m *MockCompleter) ModelID() string {
	return m.Model
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	return int(m.callCount.Load())
}

// Requests returns a copy of every request received.
func (m *MockCompleter) Requests() []ai.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.CompletionRequest(nil), m.requests...)
}

// Reset clears the call count, recorded requests and injected behavior.
func (m *MockCompleter) Reset() {
	m.callCount.Store(0)
	m.mu.Lock()
	m.requests = nil
	m.fn = nil
	m.responses = nil
	m.mu.Unlock()
}
