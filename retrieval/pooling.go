package retrieval

import (
	"github.com/poiesic/resumatch/core"
)

// PoolingCoefficients returns the weight each selected vector contributes
// under strategy. Mean and weighted coefficients sum to 1. Max pooling has
// no linear coefficients and returns nil.
//
// Weighted pooling uses the similarities as weights; negative similarities
// count as 0, and if no weight is positive every vector is weighted equally.
func PoolingCoefficients(strategy core.PoolingStrategy, sims []float32) []float64 {
	n := len(sims)
	if n == 0 || strategy == core.PoolingMax {
		return nil
	}
	coeffs := make([]float64, n)
	if strategy == core.PoolingWeighted {
		var total float64
		for i, s := range sims {
			if s > 0 {
				coeffs[i] = float64(s)
				total += float64(s)
			}
		}
		if total > 0 {
			for i := range coeffs {
				coeffs[i] /= total
			}
			return coeffs
		}
	}
	for i := range coeffs {
		coeffs[i] = 1 / float64(n)
	}
	return coeffs
}

// Pool combines vectors into one. All vectors must share a dimension.
func Pool(strategy core.PoolingStrategy, vectors [][]float32, sims []float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	out := make([]float32, dim)

	if strategy == core.PoolingMax {
		copy(out, vectors[0])
		for _, v := range vectors[1:] {
			for d := 0; d < dim; d++ {
				if v[d] > out[d] {
					out[d] = v[d]
				}
			}
		}
		return out
	}

	acc := make([]float64, dim)
	for i, c := range PoolingCoefficients(strategy, sims) {
		for d := 0; d < dim; d++ {
			acc[d] += c * float64(vectors[i][d])
		}
	}
	for d := range out {
		out[d] = float32(acc[d])
	}
	return out
}

// PooledSimilarity reduces the selected similarities the same way the
// vectors are pooled: the best one for max, otherwise the coefficient
// weighted sum.
func PooledSimilarity(strategy core.PoolingStrategy, sims []float32) float64 {
	if len(sims) == 0 {
		return 0
	}
	if strategy == core.PoolingMax {
		best := sims[0]
		for _, s := range sims[1:] {
			best = max(best, s)
		}
		return float64(best)
	}
	var total float64
	for i, c := range PoolingCoefficients(strategy, sims) {
		total += c * float64(sims[i])
	}
	return total
}
