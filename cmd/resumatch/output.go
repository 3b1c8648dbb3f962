package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/poiesic/resumatch"
	"github.com/poiesic/resumatch/core"
)

type gapView struct {
	Label    string `json:"label"`
	Detail   string `json:"detail,omitempty"`
	Severity string `json:"severity"`
}

type strengthView struct {
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

type resultView struct {
	ID               string         `json:"id"`
	OverallScore     float64        `json:"overall_score"`
	Recommendation   string         `json:"recommendation"`
	SkillsScore      float64        `json:"skills_score"`
	ExperienceScore  float64        `json:"experience_score"`
	EducationScore   float64        `json:"education_score"`
	ReportedScore    float64        `json:"reported_score,omitempty"`
	SimilarityScore  float64        `json:"similarity_score"`
	Strengths        []strengthView `json:"strengths"`
	Gaps             []gapView      `json:"gaps"`
	SelectedChunks   []int          `json:"selected_chunks"`
	ScoredAt         time.Time      `json:"scored_at"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	CacheHit         bool           `json:"cache_hit"`
}

type batchView struct {
	RunID         string            `json:"run_id"`
	TotalCount    int               `json:"total_count"`
	TotalTimeMS   int64             `json:"total_time_ms"`
	AverageTimeMS int64             `json:"average_time_ms"`
	Ranked        []resultView      `json:"ranked"`
	Failures      map[string]string `json:"failures"`
}

func newResultView(r *core.MatchResult) resultView {
	v := resultView{
		ID:               r.DocumentID,
		OverallScore:     r.OverallScore,
		Recommendation:   r.Recommendation.String(),
		SkillsScore:      r.CategoryScores.Skills,
		ExperienceScore:  r.CategoryScores.Experience,
		EducationScore:   r.CategoryScores.Education,
		ReportedScore:    r.ReportedScore,
		SimilarityScore:  r.SimilarityScore,
		Strengths:        make([]strengthView, 0, len(r.Strengths)),
		Gaps:             make([]gapView, 0, len(r.Gaps)),
		SelectedChunks:   r.SelectedChunks,
		ScoredAt:         r.ScoredAt,
		ProcessingTimeMS: r.ProcessingTime.Milliseconds(),
		CacheHit:         r.CacheHit,
	}
	for _, s := range r.Strengths {
		v.Strengths = append(v.Strengths, strengthView{Label: s.Label, Detail: s.Detail})
	}
	for _, g := range r.Gaps {
		v.Gaps = append(v.Gaps, gapView{Label: g.Label, Detail: g.Detail, Severity: g.Severity.String()})
	}
	if v.SelectedChunks == nil {
		v.SelectedChunks = []int{}
	}
	return v
}

func newBatchView(b *core.BatchRankingResult) batchView {
	v := batchView{
		RunID:         b.RunID,
		TotalCount:    b.TotalCount,
		TotalTimeMS:   b.TotalTime.Milliseconds(),
		AverageTimeMS: b.AverageTime.Milliseconds(),
		Ranked:        make([]resultView, 0, len(b.Ranked)),
		Failures:      b.Failures,
	}
	for _, r := range b.Ranked {
		v.Ranked = append(v.Ranked, newResultView(r))
	}
	if v.Failures == nil {
		v.Failures = map[string]string{}
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func renderResult(w io.Writer, r *core.MatchResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Résumé:\t%s\n", r.DocumentID)
	fmt.Fprintf(tw, "Overall score:\t%.1f (%s)\n", r.OverallScore, r.Recommendation)
	fmt.Fprintf(tw, "Skills:\t%.1f\n", r.CategoryScores.Skills)
	fmt.Fprintf(tw, "Experience:\t%.1f\n", r.CategoryScores.Experience)
	fmt.Fprintf(tw, "Education:\t%.1f\n", r.CategoryScores.Education)
	fmt.Fprintf(tw, "Similarity:\t%.2f\n", r.SimilarityScore)
	fmt.Fprintf(tw, "Cached:\t%s\n", yesNo(r.CacheHit))
	tw.Flush()

	if len(r.Strengths) > 0 {
		fmt.Fprintln(w, "\nStrengths:")
		for _, s := range r.Strengths {
			fmt.Fprintf(w, "  - %s\n", joinDetail(s.Label, s.Detail))
		}
	}
	if len(r.Gaps) > 0 {
		fmt.Fprintln(w, "\nGaps:")
		for _, g := range r.Gaps {
			fmt.Fprintf(w, "  - [%s] %s\n", g.Severity, joinDetail(g.Label, g.Detail))
		}
	}
}

func joinDetail(label, detail string) string {
	if detail == "" {
		return label
	}
	return label + ": " + detail
}

func renderBatch(w io.Writer, b *core.BatchRankingResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tRÉSUMÉ\tSCORE\tRECOMMENDATION\tSKILLS\tEXPERIENCE\tEDUCATION\tCACHED")
	for i, r := range b.Ranked {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%.1f\t%.1f\t%.1f\t%s\n",
			i+1, r.DocumentID, r.OverallScore, r.Recommendation,
			r.CategoryScores.Skills, r.CategoryScores.Experience, r.CategoryScores.Education,
			yesNo(r.CacheHit))
	}
	tw.Flush()

	if len(b.Failures) > 0 {
		ids := make([]string, 0, len(b.Failures))
		for id := range b.Failures {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Fprintf(w, "\nFailed (%d):\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(w, "  %s: %s\n", id, b.Failures[id])
		}
	}

	fmt.Fprintf(w, "\nRanked %d of %d résumés in %s (%s average)\n",
		len(b.Ranked), b.TotalCount, b.TotalTime.Round(time.Millisecond), b.AverageTime.Round(time.Millisecond))
}

func renderStats(w io.Writer, s *resumatch.CacheStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CACHE\tENTRIES\tBYTES")
	fmt.Fprintf(tw, "embeddings\t%d\t%d\n", s.Embeddings.Count, s.Embeddings.Bytes)
	fmt.Fprintf(tw, "results\t%d\t%d\n", s.Results.Count, s.Results.Bytes)
	fmt.Fprintf(tw, "profiles\t%d\t%d\n", s.Profiles.Count, s.Profiles.Bytes)
	fmt.Fprintf(tw, "total\t%d\t%d (%.2f MB)\n", s.Embeddings.Count+s.Results.Count+s.Profiles.Count, s.TotalBytes, s.TotalMB)
	tw.Flush()
}
