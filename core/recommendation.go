package core

// Recommendation buckets an overall score.
type Recommendation int

const (
	WeakMatch Recommendation = iota
	PotentialMatch
	GoodMatch
	StrongMatch
)

// Score thresholds, inclusive lower bounds.
const (
	StrongMatchThreshold    = 80.0
	GoodMatchThreshold      = 65.0
	PotentialMatchThreshold = 45.0
)

func (r Recommendation) String() string {
	switch r {
	case StrongMatch:
		return "strong match"
	case GoodMatch:
		return "good match"
	case PotentialMatch:
		return "potential match"
	default:
		return "weak match"
	}
}

// RecommendationFor maps an overall score to its bucket.
func RecommendationFor(score float64) Recommendation {
	switch {
	case score >= StrongMatchThreshold:
		return StrongMatch
	case score >= GoodMatchThreshold:
		return GoodMatch
	case score >= PotentialMatchThreshold:
		return PotentialMatch
	default:
		return WeakMatch
	}
}
