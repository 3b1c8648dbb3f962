package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/resumatch/core"
)

const maxHeadingRunes = 60

var sectionKeywords = []struct {
	section  core.Section
	keywords []string
}{
	{core.SectionSkills, []string{"skills", "skill set", "competencies", "technologies", "tech stack", "expertise"}},
	{core.SectionExperience, []string{"experience", "employment", "work history", "career history", "professional background"}},
	{core.SectionEducation, []string{"education", "academic", "degrees", "university", "training"}},
	{core.SectionProjects, []string{"projects", "portfolio"}},
	{core.SectionCertifications, []string{"certifications", "certificates", "certification", "licenses", "accreditations"}},
	{core.SectionSummary, []string{"summary", "profile", "objective", "about me", "overview"}},
}

// SectionFor returns the section whose keyword appears in s.
func SectionFor(s string) core.Section {
	s = strings.ToLower(s)
	for _, sk := range sectionKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(s, kw) {
				return sk.section
			}
		}
	}
	return core.SectionNone
}

// headingSection reports whether a trimmed line looks like a heading and,
// if so, which section it opens. A heading is short and is either marked
// up ('#' prefix, ':' suffix), written in capitals, or a bare section
// keyword.
func headingSection(trimmed string) (core.Section, bool) {
	if i := strings.IndexByte(trimmed, ':'); i >= 0 && i < len(trimmed)-1 {
		return core.SectionNone, false
	}
	marked := strings.HasPrefix(trimmed, "#") || strings.HasSuffix(trimmed, ":")
	title := strings.TrimSpace(strings.Trim(trimmed, "#:=*_ "))
	if title == "" || utf8.RuneCountInString(title) > maxHeadingRunes {
		return core.SectionNone, false
	}

	sec := SectionFor(title)
	words := len(strings.Fields(title))
	switch {
	case marked && words <= 6:
		return sec, true
	case isCapitals(title) && words <= 6:
		return sec, true
	case sec != core.SectionNone && words <= 3 && isBareTitle(title):
		return sec, true
	}
	return core.SectionNone, false
}

// inlineSection detects "Skills: Go, Python" style lines where a section
// keyword labels content on the same line.
func inlineSection(trimmed string) (core.Section, bool) {
	idx := strings.IndexByte(trimmed, ':')
	if idx <= 0 || idx > 30 || idx == len(trimmed)-1 {
		return core.SectionNone, false
	}
	if sec := SectionFor(trimmed[:idx]); sec != core.SectionNone {
		return sec, true
	}
	return core.SectionNone, false
}

// titleWords are the words a keyword-only heading may consist of.
var titleWords = func() map[string]bool {
	words := map[string]bool{
		"professional": true, "work": true, "technical": true, "key": true,
		"core": true, "relevant": true, "and": true, "&": true, "selected": true,
		"personal": true, "other": true, "additional": true,
	}
	for _, sk := range sectionKeywords {
		for _, kw := range sk.keywords {
			for _, w := range strings.Fields(kw) {
				words[w] = true
			}
		}
	}
	return words
}()

// isBareTitle reports whether title is made only of section vocabulary,
// e.g. "Technical Skills" or "Work Experience".
func isBareTitle(title string) bool {
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if !titleWords[strings.Trim(w, ".,;")] {
			return false
		}
	}
	return true
}

// isCapitals reports whether s is an all-caps heading such as "EDUCATION".
// Short acronyms and comma lists ("MIT", "AWS, GCP") are not headings.
func isCapitals(s string) bool {
	if strings.ContainsRune(s, ',') {
		return false
	}
	letters := 0
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 5
}
