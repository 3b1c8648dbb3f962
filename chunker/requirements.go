package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultRequirementChars bounds a job requirement block in runes.
const DefaultRequirementChars = 400

var requirementKeywords = []string{
	"requirement", "qualification", "required skill", "must have",
	"responsibilities", "job duties", "what you'll do", "what you will do",
	"role", "nice to have", "preferred", "bonus", "about", "company", "overview",
	"benefits", "who you are",
}

// Requirements splits a job description into blocks for the scoring prompt.
// Blocks start at requirement-style headings ("Requirements", "Nice to
// have", "About the role") and are packed line by line up to maxChars runes.
// Every non-blank line lands in exactly one block; a line longer than
// maxChars forms a block of its own.
func Requirements(text string, maxChars int) []string {
	if maxChars < minMaxChars {
		maxChars = minMaxChars
	}

	var sections [][]string
	var cur []string
	for _, line := range strings.Split(Normalize(text), "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if isRequirementHeading(strings.TrimSpace(line)) && hasContent(cur) {
			sections = append(sections, cur)
			cur = nil
		}
		cur = append(cur, line)
	}
	sections = append(sections, cur)

	var out []string
	for _, lines := range sections {
		var b strings.Builder
		n := 0
		flush := func() {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
			n = 0
		}
		for _, line := range lines {
			if n == 0 && strings.TrimSpace(line) == "" {
				continue
			}
			l := utf8.RuneCountInString(line)
			if n > 0 && n+1+l > maxChars {
				flush()
			}
			if n > 0 {
				b.WriteByte('\n')
				n++
			}
			b.WriteString(line)
			n += l
		}
		flush()
	}
	return out
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

// isRequirementHeading reports whether a trimmed line is a short heading
// naming a part of a job posting.
func isRequirementHeading(trimmed string) bool {
	if i := strings.IndexByte(trimmed, ':'); i >= 0 && i < len(trimmed)-1 {
		return false
	}
	marked := strings.HasPrefix(trimmed, "#") || strings.HasSuffix(trimmed, ":")
	title := strings.TrimSpace(strings.Trim(trimmed, "#:=*_ "))
	if title == "" || isBullet(title) || utf8.RuneCountInString(title) > maxHeadingRunes {
		return false
	}
	words := len(strings.Fields(title))
	if words > 6 || !(marked || isCapitals(title) || words <= 3) {
		return false
	}
	lower := strings.ToLower(title)
	for _, kw := range requirementKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
