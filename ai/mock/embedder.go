package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// DefaultDimensions is the vector size produced by the default embedder.
const DefaultDimensions = 64

// EmbedTextFunc replaces the default behavior of EmbedText.
type EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

// EmbedTextsFunc replaces the default behavior of EmbedTexts.
type EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

// MockEmbedder is a test double for ai.Embedder.
// Custom behavior is injected with SetEmbedTextFunc and SetEmbedTextsFunc,
// which are safe to call while embeddings are in flight.
type MockEmbedder struct {
	// Model is returned by ModelID.
	Model string

	callCount  atomic.Int64
	embedText  atomic.Pointer[EmbedTextFunc]
	embedTexts atomic.Pointer[EmbedTextsFunc]

	mu    sync.Mutex
	texts map[string]int
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockEmbedder().
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Model: "mock-embed", texts: make(map[string]int)}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	m.record(text)

	if fn := m.embedText.Load(); fn != nil {
		return (*fn)(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DeterministicVector(text, DefaultDimensions), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)
	for _, t := range texts {
		m.record(t)
	}

	if fn := m.embedTexts.Load(); fn != nil {
		return (*fn)(ctx, texts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = DeterministicVector(text, DefaultDimensions)
	}
	return vectors, nil
}

// SetEmbedTextFunc installs fn as the EmbedText behavior. A nil fn restores
// the deterministic default.
func (m *MockEmbedder) SetEmbedTextFunc(fn EmbedTextFunc) {
	if fn == nil {
		m.embedText.Store(nil)
		return
	}
	m.embedText.Store(&fn)
}

// SetEmbedTextsFunc installs fn as the EmbedTexts behavior. A nil fn
// restores the deterministic default.
func (m *MockEmbedder) SetEmbedTextsFunc(fn EmbedTextsFunc) {
	if fn == nil {
		m.embedTexts.Store(nil)
		return
	}
	m.embedTexts.Store(&fn)
}

// ModelID returns the configured model name.
func (m *MockEmbedder) ModelID() string {
	return m.Model
}

// CallCount returns the number of times any embedding method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// TextCount returns how many times text was submitted for embedding.
func (m *MockEmbedder) TextCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.texts[text]
}

// Reset clears the call count and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.embedText.Store(nil)
	m.embedTexts.Store(nil)
	m.mu.Lock()
	m.texts = make(map[string]int)
	m.mu.Unlock()
}

func (m *MockEmbedder) record(text string) {
	m.mu.Lock()
	if m.texts == nil {
		m.texts = make(map[string]int)
	}
	m.texts[text]++
	m.mu.Unlock()
}

// DeterministicVector creates a unit-length embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
