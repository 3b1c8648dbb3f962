package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/core"
)

// DefaultProfileOutputTokens caps the length of a profile reply.
const DefaultProfileOutputTokens = 400

// Input beyond these lengths is cut before profiling.
const (
	maxCandidateProfileRunes = 3000
	maxJobProfileRunes       = 2000
)

const profileSystem = "You extract structured facts from hiring documents. You reply with exactly one JSON object and nothing else."

var errNoProfileFields = errors.New("reply has no profile fields")

// Profiler extracts structured profiles from résumés and job descriptions.
// Safe for concurrent use.
type Profiler struct {
	completer ai.Completer
	maxOutput int
	logger    *slog.Logger
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithProfileOutputTokens sets the completion length requested per profile.
func WithProfileOutputTokens(n int) ProfilerOption {
	return func(p *Profiler) {
		if n > 0 {
			p.maxOutput = n
		}
	}
}

// WithProfileLogger sets a custom logger.
func WithProfileLogger(logger *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProfiler creates a Profiler backed by completer.
func NewProfiler(completer ai.Completer, opts ...ProfilerOption) (*Profiler, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	p := &Profiler{
		completer: completer,
		maxOutput: DefaultProfileOutputTokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "profiler")
	return p, nil
}

// ModelID returns the model whose output the profiles come from.
func (p *Profiler) ModelID() string {
	return p.completer.ModelID()
}

// Extract asks the model for the structured profile of text. A reply that
// cannot be read, or that names none of the profile fields, is an error
// wrapping core.ErrProfileExtraction.
func (p *Profiler) Extract(ctx context.Context, kind core.ProfileKind, text string) (*core.Profile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s text", core.ErrEmptyInput, kind)
	}

	raw, err := p.completer.Complete(ctx, ai.CompletionRequest{
		System:      profileSystem,
		Prompt:      profilePrompt(kind, text),
		MaxTokens:   p.maxOutput,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, core.ErrCompletionService) {
			err = fmt.Errorf("%w: %w", core.ErrCompletionService, err)
		}
		return nil, err
	}

	profile, err := parseProfile(raw, kind)
	if err != nil {
		p.logger.Warn("unparseable profile reply", "kind", kind, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrProfileExtraction, err)
	}
	return profile, nil
}

func profilePrompt(kind core.ProfileKind, text string) string {
	if kind == core.ProfileJob {
		return `Extract structured job requirements.
Return ONLY valid JSON.

Fields:
- required_skills (list of strings)
- nice_to_have (list of strings)
- min_years_experience (number)
- domains (list of strings)
- seniority (junior | mid | senior | lead)

JOB DESCRIPTION:
` + truncateRunes(text, maxJobProfileRunes)
	}
	return `Extract structured information from the resume.
Return ONLY valid JSON.

Fields:
- skills (list of strings)
- years_experience (number)
- job_titles (list of strings)
- domains (list of strings)
- seniority (junior | mid | senior | lead)

RESUME:
` + truncateRunes(text, maxCandidateProfileRunes)
}

type rawProfile struct {
	Skills         json.RawMessage `json:"skills"`
	RequiredSkills json.RawMessage `json:"required_skills"`
	NiceToHave     json.RawMessage `json:"nice_to_have"`
	JobTitles      json.RawMessage `json:"job_titles"`
	Domains        json.RawMessage `json:"domains"`
	Domain         json.RawMessage `json:"domain"`
	Years          json.RawMessage `json:"years_experience"`
	MinYears       json.RawMessage `json:"min_years_experience"`
	Seniority      json.RawMessage `json:"seniority"`
}

// parseProfile reads a profile reply with the same leniency as score
// replies: fences, surrounding prose and unquoted keys are tolerated.
func parseProfile(raw string, kind core.ProfileKind) (*core.Profile, error) {
	obj, ok := outermostObject(stripFences(raw))
	if !ok {
		return nil, errNoObject
	}

	var reply rawProfile
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		reply = rawProfile{}
		if rerr := json.Unmarshal([]byte(repairJSON(obj)), &reply); rerr != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}

	p := &core.Profile{
		Kind:      kind,
		Domains:   stringList(firstPresent(reply.Domains, reply.Domain)),
		Seniority: core.ParseSeniority(stringValue(reply.Seniority)),
	}
	years := reply.Years
	if kind == core.ProfileJob {
		p.Skills = stringList(firstPresent(reply.RequiredSkills, reply.Skills))
		p.NiceToHave = stringList(reply.NiceToHave)
		years = firstPresent(reply.MinYears, reply.Years)
	} else {
		p.Skills = stringList(firstPresent(reply.Skills, reply.RequiredSkills))
		p.JobTitles = stringList(reply.JobTitles)
	}
	if !isAbsent(years) {
		if v, err := number(years); err == nil && v > 0 && v <= 70 {
			p.YearsExperience = core.Round1(v)
		}
	}

	if p.IsEmpty() {
		return nil, errNoProfileFields
	}
	return p, nil
}

func firstPresent(vals ...json.RawMessage) json.RawMessage {
	for _, v := range vals {
		if !isAbsent(v) {
			return v
		}
	}
	return nil
}

// stringList accepts a list of strings or objects, or a single
// comma separated string.
func stringList(raw json.RawMessage) []string {
	if isAbsent(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		if label, _, _, ok := parseItem(item); ok {
			out = append(out, label)
		}
	}
	return out
}

func stringValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

type candidateView struct {
	Skills          []string `json:"skills,omitempty"`
	YearsExperience float64  `json:"years_experience,omitempty"`
	JobTitles       []string `json:"job_titles,omitempty"`
	Domains         []string `json:"domains,omitempty"`
	Seniority       string   `json:"seniority,omitempty"`
}

type jobView struct {
	RequiredSkills     []string `json:"required_skills,omitempty"`
	NiceToHave         []string `json:"nice_to_have,omitempty"`
	MinYearsExperience float64  `json:"min_years_experience,omitempty"`
	Domains            []string `json:"domains,omitempty"`
	Seniority          string   `json:"seniority,omitempty"`
}

// renderProfile formats p for the scoring prompt. Empty profiles render
// as the empty string.
func renderProfile(p *core.Profile) string {
	if p.IsEmpty() {
		return ""
	}
	var view any
	if p.Kind == core.ProfileJob {
		view = jobView{
			RequiredSkills:     p.Skills,
			NiceToHave:         p.NiceToHave,
			MinYearsExperience: p.YearsExperience,
			Domains:            p.Domains,
			Seniority:          p.Seniority.String(),
		}
	} else {
		view = candidateView{
			Skills:          p.Skills,
			YearsExperience: p.YearsExperience,
			JobTitles:       p.JobTitles,
			Domains:         p.Domains,
			Seniority:       p.Seniority.String(),
		}
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}
