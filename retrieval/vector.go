package retrieval

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero vector has similarity 0 with everything. Vectors must have equal
// length.
func CosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
