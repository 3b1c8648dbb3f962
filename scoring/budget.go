package scoring

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/poiesic/resumatch/core"
	"github.com/poiesic/resumatch/retrieval"
)

// fitted is a prompt that fits the budget, plus how many excerpts survived.
type fitted struct {
	system, user string
	kept         int
	truncated    bool
}

// fit builds the prompt with as many excerpts as the budget allows. Excerpts
// arrive in relevance order, so trimming works from the tail. The job
// description is never cut.
func (s *Scorer) fit(build promptBuilder, parts promptParts, chunks []string, sims []float32) (fitted, error) {
	render := func(texts []string) fitted {
		sys, user := build(parts, retrieval.FormatContext(texts, sims))
		return fitted{system: sys, user: user, kept: len(texts)}
	}
	fits := func(f fitted) bool {
		return s.count(f.system)+s.count(f.user) <= s.budget
	}

	if f := render(chunks); fits(f) {
		return f, nil
	}
	if base := render(nil); !fits(base) {
		return fitted{}, fmt.Errorf("%w: %d tokens available", core.ErrContextOverflow, s.budget)
	}

	texts := append([]string(nil), chunks...)
	for len(texts) > 0 {
		last := len(texts) - 1
		without := render(texts[:last])
		if !fits(without) {
			texts = texts[:last]
			continue
		}
		// Without the last excerpt the prompt fits; keep the longest prefix of
		// it that still fits, cut at a word boundary.
		cuts := wordCuts(texts[last])
		n := sort.Search(len(cuts), func(i int) bool {
			trial := append(texts[:last:last], texts[last][:cuts[i]])
			return !fits(render(trial))
		})
		if n == 0 {
			return without, nil
		}
		texts[last] = texts[last][:cuts[n-1]]
		f := render(texts)
		f.truncated = true
		return f, nil
	}
	return render(nil), nil
}

// wordCuts lists byte offsets where text can be cut just before whitespace,
// in ascending order. Each prefix ends on a word.
func wordCuts(text string) []int {
	var cuts []int
	prevSpace := true
	for i, r := range text {
		space := unicode.IsSpace(r)
		if space && !prevSpace {
			cuts = append(cuts, i)
		}
		prevSpace = space
	}
	if trimmed := strings.TrimRightFunc(text, unicode.IsSpace); len(trimmed) > 0 {
		if len(cuts) == 0 || cuts[len(cuts)-1] != len(trimmed) {
			cuts = append(cuts, len(trimmed))
		}
	}
	return cuts
}
