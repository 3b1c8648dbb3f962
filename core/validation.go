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


package core

import (
	"fmt"
	"math"
	"strings"
)

// Category weights used to compose the overall score.
const (
	SkillsWeight     = 0.45
	ExperienceWeight = 0.35
	EducationWeight  = 0.20
)

// ComposeScore derives the authoritative overall score from category scores.
// The result is clamped to [0,100] and rounded to one decimal.
func ComposeScore(c CategoryScores) float64 {
	s := SkillsWeight*c.Skills + ExperienceWeight*c.Experience + EducationWeight*c.Education
	return Round1(Clamp(s, 0, 100))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ValidateScore checks that a score lies in [0,100].
func ValidateScore(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %s=%v", ErrInvalidScore, name, v)
	}
	return nil
}

// ValidateCategoryScores validates every category score.
func ValidateCategoryScores(c CategoryScores) error {
	if err := ValidateScore("skills", c.Skills); err != nil {
		return err
	}
	if err := ValidateScore("experience", c.Experience); err != nil {
		return err
	}
	return ValidateScore("education", c.Education)
}

// ValidateDocument validates a document before it enters the pipeline.
//
// Validation rules:
//   - ID must not be empty
//   - Text must contain something other than whitespace
func ValidateDocument(doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document id is empty", ErrEmptyInput)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: document %q has no text", ErrEmptyInput, doc.ID)
	}
	return nil
}

// ValidateJobDescription validates a job description.
func ValidateJobDescription(job JobDescription) error {
	if strings.TrimSpace(job.Text) == "" {
		return fmt.Errorf("%w: job description has no text", ErrEmptyInput)
	}
	return nil
}
