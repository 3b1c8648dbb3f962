// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package scoring

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/resumatch/core"
)

// maxEchoRunes caps how much of a bad reply is quoted back on retry.
const maxEchoRunes = 600

const lenientSystem = "You are an ATS scoring agent. You compare resume excerpts against a job description and answer in JSON."

const strictSystem = "You are an ATS scoring agent. You reply with exactly one JSON object and nothing else. No prose, no markdown, no code fences."

const responseShape = `{
  "skills_score": number 0-100,
  "experience_score": number 0-100,
  "education_score": number 0-100,
  "overall_score": number 0-100,
  "strengths": [{"label": "short name", "detail": "one sentence"}],
  "gaps": [{"label": "short name", "detail": "one sentence", "severity": "low | medium | high"}],
  "recommendation": "strong match | good match | potential match | weak match"
}`

// promptParts holds everything a prompt needs except the excerpts, which
// the budget fitter varies. job is the rendered requirements block and the
// profiles are rendered JSON, empty when absent.
type promptParts struct {
	similarity       float64
	job              string
	hint             core.Section
	candidateProfile string
	jobProfile       string
	previous         string
}

func (p promptParts) hasProfiles() bool {
	return p.candidateProfile != "" || p.jobProfile != ""
}

type promptBuilder func(p promptParts, excerpts string) (system, user string)

func weightsBlock() string {
	return fmt.Sprintf(`Use these weights:
- Skills match (%.0f%%)
- Experience (%.0f%%)
- Education (%.0f%%)`,
		core.SkillsWeight*100, core.ExperienceWeight*100, core.EducationWeight*100)
}

func focusLine(hint core.Section) string {
	if hint == core.SectionNone {
		return ""
	}
	return fmt.Sprintf("Pay particular attention to the candidate's %s.\n\n", hint)
}

// writeContext writes the part shared by both prompts: weights, similarity,
// structured profiles, excerpts and job requirements.
func writeContext(b *strings.Builder, p promptParts, excerpts string) {
	b.WriteString(weightsBlock())
	fmt.Fprintf(b, "\n\nOverall embedding similarity: %.1f/100\n\n", p.similarity)
	b.WriteString(focusLine(p.hint))
	if p.candidateProfile != "" {
		b.WriteString("STRUCTURED RESUME DATA:\n")
		b.WriteString(p.candidateProfile)
		b.WriteString("\n\n")
	}
	if p.jobProfile != "" {
		b.WriteString("STRUCTURED JOB DATA:\n")
		b.WriteString(p.jobProfile)
		b.WriteString("\n\n")
	}
	b.WriteString("RELEVANT RESUME EXCERPTS:\n")
	b.WriteString(excerpts)
	b.WriteString("\n\nJOB REQUIREMENTS:\n")
	b.WriteString(p.job)
}

func lenientPrompt(p promptParts, excerpts string) (string, string) {
	var b strings.Builder
	writeContext(&b, p, excerpts)
	b.WriteString("\n\nAnalyze ONLY the excerpts above. Score each category from 0 to 100.\n\nReturn JSON only:\n")
	b.WriteString(responseShape)
	return lenientSystem, b.String()
}

func strictPrompt(p promptParts, excerpts string) (string, string) {
	var b strings.Builder
	b.WriteString("Your previous reply could not be parsed:\n<<<\n")
	b.WriteString(truncateRunes(p.previous, maxEchoRunes))
	b.WriteString("\n>>>\n\n")
	writeContext(&b, p, excerpts)
	b.WriteString(`

Rules:
1. Output a single JSON object matching the schema below.
2. skills_score, experience_score and education_score are required numbers between 0 and 100.
3. Every key is double quoted. No comments, no trailing commas.
4. Do not write anything before or after the object.

Schema:
`)
	b.WriteString(responseShape)
	return strictSystem, b.String()
}

// formatRequirements labels each job description block in order.
func formatRequirements(blocks []string) string {
	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Requirement %d]\n%s", i+1, block)
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
