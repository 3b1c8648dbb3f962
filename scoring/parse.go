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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/resumatch/core"
)

var (
	errNoObject     = errors.New("no JSON object in reply")
	errMissingField = errors.New("missing required field")
	errBadNumber    = errors.New("not a number")
)

// assessment is the parsed model reply before composition.
type assessment struct {
	categories core.CategoryScores
	reported   float64
	strengths  []core.Strength
	gaps       []core.Gap
}

type rawReply struct {
	Skills     json.RawMessage   `json:"skills_score"`
	Experience json.RawMessage   `json:"experience_score"`
	Education  json.RawMessage   `json:"education_score"`
	Overall    json.RawMessage   `json:"overall_score"`
	Final      json.RawMessage   `json:"final_score"`
	Strengths  []json.RawMessage `json:"strengths"`
	Gaps       []json.RawMessage `json:"gaps"`
}

type rawItem struct {
	Label       string `json:"label"`
	Name        string `json:"name"`
	Detail      string `json:"detail"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// parseReply extracts an assessment from raw model output.
func parseReply(raw string) (*assessment, error) {
	obj, ok := outermostObject(stripFences(raw))
	if !ok {
		return nil, errNoObject
	}

	var reply rawReply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		reply = rawReply{}
		if rerr := json.Unmarshal([]byte(repairJSON(obj)), &reply); rerr != nil {
			return nil, fmt.Errorf("decode reply: %w", err)
		}
	}

	var a assessment
	var err error
	if a.categories.Skills, err = requiredScore("skills_score", reply.Skills); err != nil {
		return nil, err
	}
	if a.categories.Experience, err = requiredScore("experience_score", reply.Experience); err != nil {
		return nil, err
	}
	if a.categories.Education, err = requiredScore("education_score", reply.Education); err != nil {
		return nil, err
	}

	overall := reply.Overall
	if isAbsent(overall) {
		overall = reply.Final
	}
	if !isAbsent(overall) {
		// Informational only; a bad value is dropped rather than failing the reply.
		if v, err := number(overall); err == nil && core.ValidateScore("overall_score", v) == nil {
			a.reported = core.Round1(v)
		}
	}

	for _, item := range reply.Strengths {
		label, detail, _, ok := parseItem(item)
		if ok {
			a.strengths = append(a.strengths, core.Strength{Label: label, Detail: detail})
		}
	}
	for _, item := range reply.Gaps {
		label, detail, severity, ok := parseItem(item)
		if ok {
			a.gaps = append(a.gaps, core.Gap{Label: label, Detail: detail, Severity: core.ParseSeverity(severity)})
		}
	}
	return &a, nil
}

func requiredScore(name string, raw json.RawMessage) (float64, error) {
	if isAbsent(raw) {
		return 0, fmt.Errorf("%w: %s", errMissingField, name)
	}
	v, err := number(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if err := core.ValidateScore(name, v); err != nil {
		return 0, err
	}
	return v, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// number accepts a JSON number or a string holding one, with an optional
// trailing percent sign.
func number(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errBadNumber
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errBadNumber
	}
	return f, nil
}

// parseItem reads a strength or gap given either as an object or as a plain
// string. Empty entries are skipped.
func parseItem(raw json.RawMessage) (label, detail, severity string, ok bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, "", "", s != ""
	}
	var item rawItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return "", "", "", false
	}
	label = strings.TrimSpace(firstNonEmpty(item.Label, item.Name))
	detail = strings.TrimSpace(firstNonEmpty(item.Detail, item.Description))
	if label == "" {
		label, detail = detail, ""
	}
	return label, detail, item.Severity, label != ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
