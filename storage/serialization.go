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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/resumatch/core"
)

const (
	embeddingVersion   = 1
	matchResultVersion = 1
	profileVersion     = 1
)

// EmbeddingMUS serializes core.Embedding values.
var EmbeddingMUS mus.Serializer[*core.Embedding] = embeddingMUS{}

// MatchResultMUS serializes core.MatchResult values. DocumentID,
// ProcessingTime and CacheHit describe a single request and are not encoded.
var MatchResultMUS mus.Serializer[*core.MatchResult] = matchResultMUS{}

// ProfileMUS serializes core.Profile values.
var ProfileMUS mus.Serializer[*core.Profile] = profileMUS{}

// MarshalEmbedding serializes an embedding to bytes.
func MarshalEmbedding(e *core.Embedding) []byte {
	buf := make([]byte, EmbeddingMUS.Size(e))
	EmbeddingMUS.Marshal(e, buf)
	return buf
}

// UnmarshalEmbedding deserializes an embedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	e, _, err := EmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return e, nil
}

// MarshalMatchResult serializes a match result to bytes.
func MarshalMatchResult(r *core.MatchResult) []byte {
	buf := make([]byte, MatchResultMUS.Size(r))
	MatchResultMUS.Marshal(r, buf)
	return buf
}

// UnmarshalMatchResult deserializes a match result from bytes.
func UnmarshalMatchResult(data []byte) (*core.MatchResult, error) {
	r, _, err := MatchResultMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return r, nil
}

// MarshalProfile serializes a profile to bytes.
func MarshalProfile(p *core.Profile) []byte {
	buf := make([]byte, ProfileMUS.Size(p))
	ProfileMUS.Marshal(p, buf)
	return buf
}

// UnmarshalProfile deserializes a profile from bytes.
func UnmarshalProfile(data []byte) (*core.Profile, error) {
	p, _, err := ProfileMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return p, nil
}

type embeddingMUS struct{}

func (embeddingMUS) Marshal(e *core.Embedding, bs []byte) (n int) {
	n = varint.Int.Marshal(embeddingVersion, bs)
	n += ord.String.Marshal(string(e.Fingerprint), bs[n:])
	n += ord.String.Marshal(e.ModelID, bs[n:])
	n += varint.Int.Marshal(len(e.Vector), bs[n:])
	for _, f := range e.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (embeddingMUS) Unmarshal(bs []byte) (e *core.Embedding, n int, err error) {
	r := reader{bs: bs}
	r.version(embeddingVersion)
	e = &core.Embedding{
		Fingerprint: core.Fingerprint(r.str()),
		ModelID:     r.str(),
	}
	e.Vector = r.float32s()
	if r.err != nil {
		return nil, r.n, r.err
	}
	return e, r.n, nil
}

func (embeddingMUS) Size(e *core.Embedding) (size int) {
	size = varint.Int.Size(embeddingVersion)
	size += ord.String.Size(string(e.Fingerprint))
	size += ord.String.Size(e.ModelID)
	size += varint.Int.Size(len(e.Vector))
	for _, f := range e.Vector {
		size += raw.Float32.Size(f)
	}
	return size
}

func (s embeddingMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type matchResultMUS struct{}

func (matchResultMUS) Marshal(m *core.MatchResult, bs []byte) (n int) {
	n = varint.Int.Marshal(matchResultVersion, bs)
	n += ord.String.Marshal(string(m.DocumentFingerprint), bs[n:])
	n += ord.String.Marshal(string(m.JobFingerprint), bs[n:])
	for _, f := range scoreFields(m) {
		n += raw.Float64.Marshal(f, bs[n:])
	}
	n += varint.Int.Marshal(len(m.Strengths), bs[n:])
	for _, s := range m.Strengths {
		n += ord.String.Marshal(s.Label, bs[n:])
		n += ord.String.Marshal(s.Detail, bs[n:])
	}
	n += varint.Int.Marshal(len(m.Gaps), bs[n:])
	for _, g := range m.Gaps {
		n += ord.String.Marshal(g.Label, bs[n:])
		n += ord.String.Marshal(g.Detail, bs[n:])
		n += varint.Int.Marshal(int(g.Severity), bs[n:])
	}
	n += varint.Int.Marshal(int(m.Recommendation), bs[n:])
	n += varint.Int.Marshal(len(m.SelectedChunks), bs[n:])
	for _, idx := range m.SelectedChunks {
		n += varint.Int.Marshal(idx, bs[n:])
	}
	n += varint.Int64.Marshal(unixMicro(m.ScoredAt), bs[n:])
	return n
}

func (matchResultMUS) Unmarshal(bs []byte) (m *core.MatchResult, n int, err error) {
	r := reader{bs: bs}
	r.version(matchResultVersion)
	m = &core.MatchResult{
		DocumentFingerprint: core.Fingerprint(r.str()),
		JobFingerprint:      core.Fingerprint(r.str()),
	}
	for _, f := range scoreFieldPtrs(m) {
		*f = r.float64()
	}
	if count := r.count(2); count > 0 {
		m.Strengths = make([]core.Strength, count)
		for i := range m.Strengths {
			m.Strengths[i] = core.Strength{Label: r.str(), Detail: r.str()}
		}
	}
	if count := r.count(3); count > 0 {
		m.Gaps = make([]core.Gap, count)
		for i := range m.Gaps {
			m.Gaps[i] = core.Gap{Label: r.str(), Detail: r.str(), Severity: core.Severity(r.int())}
		}
	}
	m.Recommendation = core.Recommendation(r.int())
	if count := r.count(1); count > 0 {
		m.SelectedChunks = make([]int, count)
		for i := range m.SelectedChunks {
			m.SelectedChunks[i] = r.int()
		}
	}
	if micros := r.int64(); micros != 0 {
		m.ScoredAt = time.UnixMicro(micros).UTC()
	}
	if r.err != nil {
		return nil, r.n, r.err
	}
	return m, r.n, nil
}

func (matchResultMUS) Size(m *core.MatchResult) (size int) {
	size = varint.Int.Size(matchResultVersion)
	size += ord.String.Size(string(m.DocumentFingerprint))
	size += ord.String.Size(string(m.JobFingerprint))
	for _, f := range scoreFields(m) {
		size += raw.Float64.Size(f)
	}
	size += varint.Int.Size(len(m.Strengths))
	for _, s := range m.Strengths {
		size += ord.String.Size(s.Label) + ord.String.Size(s.Detail)
	}
	size += varint.Int.Size(len(m.Gaps))
	for _, g := range m.Gaps {
		size += ord.String.Size(g.Label) + ord.String.Size(g.Detail)
		size += varint.Int.Size(int(g.Severity))
	}
	size += varint.Int.Size(int(m.Recommendation))
	size += varint.Int.Size(len(m.SelectedChunks))
	for _, idx := range m.SelectedChunks {
		size += varint.Int.Size(idx)
	}
	size += varint.Int64.Size(unixMicro(m.ScoredAt))
	return size
}

func (s matchResultMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type profileMUS struct{}

func (profileMUS) Marshal(p *core.Profile, bs []byte) (n int) {
	n = varint.Int.Marshal(profileVersion, bs)
	n += varint.Int.Marshal(int(p.Kind), bs[n:])
	n += ord.String.Marshal(string(p.Fingerprint), bs[n:])
	for _, list := range profileLists(p) {
		n += varint.Int.Marshal(len(list), bs[n:])
		for _, v := range list {
			n += ord.String.Marshal(v, bs[n:])
		}
	}
	n += raw.Float64.Marshal(p.YearsExperience, bs[n:])
	n += varint.Int.Marshal(int(p.Seniority), bs[n:])
	return n
}

func (profileMUS) Unmarshal(bs []byte) (p *core.Profile, n int, err error) {
	r := reader{bs: bs}
	r.version(profileVersion)
	p = &core.Profile{
		Kind:        core.ProfileKind(r.int()),
		Fingerprint: core.Fingerprint(r.str()),
	}
	for _, list := range profileListPtrs(p) {
		*list = r.strs()
	}
	p.YearsExperience = r.float64()
	p.Seniority = core.Seniority(r.int())
	if r.err != nil {
		return nil, r.n, r.err
	}
	return p, r.n, nil
}

func (profileMUS) Size(p *core.Profile) (size int) {
	size = varint.Int.Size(profileVersion)
	size += varint.Int.Size(int(p.Kind))
	size += ord.String.Size(string(p.Fingerprint))
	for _, list := range profileLists(p) {
		size += varint.Int.Size(len(list))
		for _, v := range list {
			size += ord.String.Size(v)
		}
	}
	size += raw.Float64.Size(p.YearsExperience)
	size += varint.Int.Size(int(p.Seniority))
	return size
}

func (s profileMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

func profileLists(p *core.Profile) [][]string {
	return [][]string{p.Skills, p.NiceToHave, p.JobTitles, p.Domains}
}

func profileListPtrs(p *core.Profile) []*[]string {
	return []*[]string{&p.Skills, &p.NiceToHave, &p.JobTitles, &p.Domains}
}

func scoreFields(m *core.MatchResult) []float64 {
	return []float64{
		m.OverallScore,
		m.ReportedScore,
		m.SimilarityScore,
		m.CategoryScores.Skills,
		m.CategoryScores.Experience,
		m.CategoryScores.Education,
	}
}

func scoreFieldPtrs(m *core.MatchResult) []*float64 {
	return []*float64{
		&m.OverallScore,
		&m.ReportedScore,
		&m.SimilarityScore,
		&m.CategoryScores.Skills,
		&m.CategoryScores.Experience,
		&m.CategoryScores.Education,
	}
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// reader walks a MUS buffer, stopping at the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) version(want int) {
	if v := r.int(); r.err == nil && v != want {
		r.err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) float64() float64 {
	if r.err != nil {
		return 0
	}
	if len(r.bs)-r.n < 8 {
		r.err = ErrTruncatedData
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

// count reads a slice length and checks that at least minBytes per element
// remain, so corrupt lengths fail instead of allocating.
func (r *reader) count(minBytes int) int {
	c := r.int()
	if r.err != nil {
		return 0
	}
	if c < 0 || c*minBytes > len(r.bs)-r.n {
		r.err = ErrTruncatedData
		return 0
	}
	return c
}

func (r *reader) strs() []string {
	c := r.count(1)
	if r.err != nil || c == 0 {
		return nil
	}
	out := make([]string, c)
	for i := range out {
		out[i] = r.str()
	}
	if r.err != nil {
		return nil
	}
	return out
}

func (r *reader) float32s() []float32 {
	c := r.count(4)
	if r.err != nil || c == 0 {
		return nil
	}
	out := make([]float32, c)
	for i := range out {
		v, n, err := raw.Float32.Unmarshal(r.bs[r.n:])
		r.n += n
		if err != nil {
			r.err = err
			return nil
		}
		out[i] = v
	}
	return out
}
