package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a content-derived cache key root.
// Byte-identical text always yields the same fingerprint regardless of
// filename or upload time.
type Fingerprint string

// FingerprintOf hashes text with BLAKE2b-256 and returns it hex encoded.
func FingerprintOf(text string) Fingerprint {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Short returns an abbreviated form suitable for log output.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// Document is a candidate résumé submitted for matching.
type Document struct {
	ID          string
	Text        string
	Fingerprint Fingerprint
}

// NewDocument creates a document and computes its fingerprint.
func NewDocument(id, text string) Document {
	return Document{
		ID:          id,
		Text:        text,
		Fingerprint: FingerprintOf(text),
	}
}

// RawDocument is a document whose text has not been extracted yet.
type RawDocument struct {
	ID   string
	Data []byte
	// ReadErr records why Data could not be loaded. A document with a
	// ReadErr fails at extraction without affecting the rest of a batch.
	ReadErr error
}

// JobDescription is the reference text candidates are matched against.
type JobDescription struct {
	Text        string
	Fingerprint Fingerprint
}

// NewJobDescription creates a job description and computes its fingerprint.
func NewJobDescription(text string) JobDescription {
	return JobDescription{
		Text:        text,
		Fingerprint: FingerprintOf(text),
	}
}

// Section is an advisory label describing which part of a résumé a chunk
// came from.
type Section int

const (
	SectionNone Section = iota
	SectionSummary
	SectionSkills
	SectionExperience
	SectionEducation
	SectionProjects
	SectionCertifications
)

var sectionNames = [...]string{
	SectionNone:           "none",
	SectionSummary:        "summary",
	SectionSkills:         "skills",
	SectionExperience:     "experience",
	SectionEducation:      "education",
	SectionProjects:       "projects",
	SectionCertifications: "certifications",
}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionNames) {
		return "none"
	}
	return sectionNames[s]
}

// ParseSection maps a section name back to its Section.
// Unknown names map to SectionNone.
func ParseSection(name string) Section {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range sectionNames {
		if n == name {
			return Section(i)
		}
	}
	return SectionNone
}

// Chunk is a bounded, contiguous fragment of a document.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	Section    Section
}

// Embedding is a vector for a piece of text, keyed by (Fingerprint, ModelID).
type Embedding struct {
	Fingerprint Fingerprint
	ModelID     string
	Vector      []float32
}

// PoolingStrategy selects how selected chunk vectors are combined.
type PoolingStrategy int

const (
	PoolingMax PoolingStrategy = iota
	PoolingMean
	PoolingWeighted
)

func (p PoolingStrategy) String() string {
	switch p {
	case PoolingMean:
		return "mean"
	case PoolingWeighted:
		return "weighted"
	default:
		return "max"
	}
}

// ParsePoolingStrategy parses "max", "mean" or "weighted".
func ParsePoolingStrategy(name string) (PoolingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "max":
		return PoolingMax, nil
	case "mean", "avg", "average":
		return PoolingMean, nil
	case "weighted":
		return PoolingWeighted, nil
	}
	return PoolingMax, ErrInvalidPooling
}

// RetrievalResult holds the chunks selected for one (document, job) pair.
type RetrievalResult struct {
	DocumentID           string
	SelectedChunkIndices []int     // ordered by relevance, descending
	Similarities         []float32 // parallel to SelectedChunkIndices
	PooledVector         []float32
	PooledText           string
	PooledChunks         []string // selected chunk texts, relevance order
	SimilarityScore      float64  // pooled similarity scaled to 0-100
}

// CategoryScores are the per-category judgments, each in [0,100].
type CategoryScores struct {
	Skills     float64
	Experience float64
	Education  float64
}

// Strength is something the candidate brings that the job asks for.
type Strength struct {
	Label  string
	Detail string
}

// Severity grades how much a gap matters.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParseSeverity is lenient: anything unrecognised is medium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "minor":
		return SeverityLow
	case "high", "critical", "major":
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Gap is a requirement the candidate does not appear to meet.
type Gap struct {
	Label    string
	Detail   string
	Severity Severity
}

// MatchResult is the scored outcome for one (document, job) pair.
// Values stored in the result cache are never mutated; per-request fields
// (DocumentID, ProcessingTime, CacheHit) are stamped on copies.
type MatchResult struct {
	DocumentID          string
	DocumentFingerprint Fingerprint
	JobFingerprint      Fingerprint
	OverallScore        float64
	ReportedScore       float64 // overall score claimed by the model, informational
	SimilarityScore     float64
	CategoryScores      CategoryScores
	Strengths           []Strength
	Gaps                []Gap
	Recommendation      Recommendation
	SelectedChunks      []int
	ScoredAt            time.Time
	ProcessingTime      time.Duration
	CacheHit            bool
}

// Clone returns a deep copy of r.
func (r *MatchResult) Clone() *MatchResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.Strengths != nil {
		c.Strengths = append([]Strength(nil), r.Strengths...)
	}
	if r.Gaps != nil {
		c.Gaps = append([]Gap(nil), r.Gaps...)
	}
	if r.SelectedChunks != nil {
		c.SelectedChunks = append([]int(nil), r.SelectedChunks...)
	}
	return &c
}

// BatchRankingResult aggregates a Rank call.
type BatchRankingResult struct {
	RunID       string
	TotalCount  int
	TotalTime   time.Duration
	AverageTime time.Duration
	Ranked      []*MatchResult
	Failures    map[string]string
}
