package core

import (
	"slices"
	"strings"
)

// ProfileKind tells which side of a match a Profile describes.
type ProfileKind int

const (
	ProfileCandidate ProfileKind = iota
	ProfileJob
)

func (k ProfileKind) String() string {
	if k == ProfileJob {
		return "job"
	}
	return "candidate"
}

// Seniority is the career level a résumé shows or a job asks for.
type Seniority int

const (
	SeniorityUnknown Seniority = iota
	SeniorityJunior
	SeniorityMid
	SenioritySenior
	SeniorityLead
)

var seniorityNames = [...]string{
	SeniorityUnknown: "",
	SeniorityJunior:  "junior",
	SeniorityMid:     "mid",
	SenioritySenior:  "senior",
	SeniorityLead:    "lead",
}

func (s Seniority) String() string {
	if s < 0 || int(s) >= len(seniorityNames) {
		return ""
	}
	return seniorityNames[s]
}

// ParseSeniority is lenient about wording. Anything unrecognised is
// SeniorityUnknown.
func ParseSeniority(s string) Seniority {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return SeniorityUnknown
	case strings.Contains(s, "lead"), strings.Contains(s, "principal"),
		strings.Contains(s, "staff"), strings.Contains(s, "head"):
		return SeniorityLead
	case strings.Contains(s, "senior"), strings.HasPrefix(s, "sr"):
		return SenioritySenior
	case strings.Contains(s, "mid"), strings.Contains(s, "intermediate"):
		return SeniorityMid
	case strings.Contains(s, "junior"), strings.HasPrefix(s, "jr"),
		strings.Contains(s, "entry"), strings.Contains(s, "intern"):
		return SeniorityJunior
	}
	return SeniorityUnknown
}

// Profile is the structured summary a model extracts from a résumé or a
// job description. For a job, Skills are the required skills and
// YearsExperience is the minimum asked for. NiceToHave only applies to
// jobs and JobTitles only to candidates.
type Profile struct {
	Kind            ProfileKind
	Fingerprint     Fingerprint
	Skills          []string
	NiceToHave      []string
	JobTitles       []string
	Domains         []string
	YearsExperience float64
	Seniority       Seniority
}

// IsEmpty reports whether the profile carries no extracted data.
func (p *Profile) IsEmpty() bool {
	return p == nil || (len(p.Skills) == 0 && len(p.NiceToHave) == 0 && len(p.JobTitles) == 0 &&
		len(p.Domains) == 0 && p.YearsExperience == 0 && p.Seniority == SeniorityUnknown)
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Skills = slices.Clone(p.Skills)
	c.NiceToHave = slices.Clone(p.NiceToHave)
	c.JobTitles = slices.Clone(p.JobTitles)
	c.Domains = slices.Clone(p.Domains)
	return &c
}
