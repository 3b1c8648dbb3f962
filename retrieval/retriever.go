package retrieval

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/resumatch/core"
)

// DefaultTopK matches the number of chunks the scorer sees by default.
const DefaultTopK = 5

type options struct {
	hint core.Section
}

// Option configures a retrieval.
type Option func(*options)

// WithSectionHint prefers chunks labelled with section when their
// similarity is exactly equal to another candidate's. Similarity always
// decides first and chunks are never filtered by section.
func WithSectionHint(section core.Section) Option {
	return func(o *options) {
		o.hint = section
	}
}

// Retrieve selects the topK chunks most similar to jobVector and pools them.
// Ties are broken by the section hint, then by chunk order, earlier first. A topK larger than the
// number of chunks selects all of them.
func Retrieve(jobVector []float32, chunks []core.Chunk, vectors [][]float32, topK int, strategy core.PoolingStrategy, opts ...Option) (*core.RetrievalResult, error) {
	if len(chunks) == 0 {
		return nil, core.ErrNoChunks
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidTopK, topK)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %d chunks but %d vectors", core.ErrDimensionMismatch, len(chunks), len(vectors))
	}
	if len(jobVector) == 0 {
		return nil, fmt.Errorf("%w: empty job vector", core.ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != len(jobVector) {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, job has %d",
				core.ErrDimensionMismatch, i, len(v), len(jobVector))
		}
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sims := make([]float32, len(chunks))
	hinted := make([]bool, len(chunks))
	order := make([]int, len(chunks))
	for i := range chunks {
		sims[i] = CosineSimilarity(jobVector, vectors[i])
		hinted[i] = o.hint != core.SectionNone && chunks[i].Section == o.hint
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case sims[a] > sims[b]:
			return -1
		case sims[a] < sims[b]:
			return 1
		case hinted[a] && !hinted[b]:
			return -1
		case hinted[b] && !hinted[a]:
			return 1
		}
		return 0
	})

	k := min(topK, len(chunks))
	selected := order[:k]
	result := &core.RetrievalResult{
		DocumentID:           chunks[0].DocumentID,
		SelectedChunkIndices: make([]int, k),
		Similarities:         make([]float32, k),
		PooledChunks:         make([]string, k),
	}
	selectedVectors := make([][]float32, k)
	for i, idx := range selected {
		result.SelectedChunkIndices[i] = chunks[idx].Index
		result.Similarities[i] = sims[idx]
		result.PooledChunks[i] = chunks[idx].Text
		selectedVectors[i] = vectors[idx]
	}
	result.PooledVector = Pool(strategy, selectedVectors, result.Similarities)
	result.PooledText = FormatContext(result.PooledChunks, result.Similarities)
	result.SimilarityScore = core.Round1(core.Clamp(PooledSimilarity(strategy, result.Similarities)*100, 0, 100))
	return result, nil
}

// FormatContext renders selected chunks in relevance order, each headed by
// its rank and similarity.
func FormatContext(texts []string, sims []float32) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ContextHeader(i, sims[i]))
		b.WriteByte('\n')
		b.WriteString(t)
	}
	return b.String()
}

// ContextHeader is the label placed above the i-th (zero based) chunk.
func ContextHeader(i int, sim float32) string {
	return fmt.Sprintf("[Relevant Section %d] (relevance: %.2f)", i+1, sim)
}
