package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/resumatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
Backend Engineer

SUMMARY
Engineer with eight years building distributed systems.

SKILLS
- Go, Python, SQL
- Kubernetes, Terraform
- PostgreSQL and Redis

Experience:
Acme Corp, Senior Engineer (2019-2024)
Led the migration of billing to event sourcing. Cut p99 latency by 40%.

EDUCATION
B.Sc. Computer Science, State University
`

// assertContiguous checks that every chunk is a slice of the normalized
// text and that chunks appear in source order.
func assertContiguous(t *testing.T, text string, chunks []core.Chunk) {
	t.Helper()
	norm := Normalize(text)
	pos := 0
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		idx := strings.Index(norm[pos:], c.Text)
		require.GreaterOrEqual(t, idx, 0, "chunk %d not found in order: %q", i, c.Text)
		pos += idx + len(c.Text)
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	c := New()
	for _, in := range []string{"", "   ", "\n\n\t\n"} {
		_, err := c.Chunk("doc", in)
		assert.ErrorIs(t, err, core.ErrEmptyInput)
	}
}

func TestChunk_Sections(t *testing.T) {
	chunks, err := New().Chunk("jane.txt", sampleResume)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assertContiguous(t, sampleResume, chunks)

	bySection := map[core.Section]string{}
	for _, c := range chunks {
		assert.Equal(t, "jane.txt", c.DocumentID)
		bySection[c.Section] += c.Text + "\n"
	}
	assert.Contains(t, bySection[core.SectionSkills], "Kubernetes, Terraform")
	assert.Contains(t, bySection[core.SectionExperience], "event sourcing")
	assert.Contains(t, bySection[core.SectionEducation], "Computer Science")
	assert.Contains(t, bySection[core.SectionSummary], "distributed systems")
	assert.Contains(t, bySection[core.SectionNone], "Jane Doe")
}

func TestChunk_SingleLine(t *testing.T) {
	chunks, err := New().Chunk("d", "  Go developer  ")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Go developer", chunks[0].Text)
	assert.Equal(t, core.SectionNone, chunks[0].Section)
}

func TestChunk_Deterministic(t *testing.T) {
	c := New(WithMaxChars(80))
	a, err := c.Chunk("d", sampleResume)
	require.NoError(t, err)
	b, err := c.Chunk("d", sampleResume)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChunk_RespectsMaxChars(t *testing.T) {
	for _, max := range []int{40, 80, 200} {
		c := New(WithMaxChars(max))
		chunks, err := c.Chunk("d", sampleResume)
		require.NoError(t, err)
		assertContiguous(t, sampleResume, chunks)
		for _, ch := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), max, "chunk %q", ch.Text)
		}
	}
}

func TestChunk_SplitsLongParagraphOnSentences(t *testing.T) {
	sentence := "Built reliable services in Go. "
	text := strings.Repeat(sentence, 10)
	chunks, err := New(WithMaxChars(70)).Chunk("d", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	assertContiguous(t, text, chunks)
	for _, ch := range chunks {
		assert.True(t, strings.HasSuffix(ch.Text, "."), "chunk should end on a sentence: %q", ch.Text)
	}
}

func TestChunk_HardSplitsRunOnSentence(t *testing.T) {
	text := strings.Repeat("kubernetes ", 30)
	chunks, err := New(WithMaxChars(50)).Chunk("d", text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	assertContiguous(t, text, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 50)
		assert.False(t, strings.Contains(ch.Text, "kuber netes"))
	}
}

func TestChunk_HardSplitWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("é", 100)
	chunks, err := New(WithMaxChars(40)).Chunk("d", text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 40, utf8.RuneCountInString(chunks[0].Text))
	assert.True(t, utf8.ValidString(chunks[0].Text))
	assert.Equal(t, text, chunks[0].Text+chunks[1].Text+chunks[2].Text)
}

func TestChunk_BulletGroupsStayTogether(t *testing.T) {
	text := "Intro line.\n- one\n- two\n  wrapped\n- three\nClosing paragraph."
	chunks, err := New(WithMaxChars(minMaxChars)).Chunk("d", text)
	require.NoError(t, err)
	assertContiguous(t, text, chunks)

	var bullets string
	for _, c := range chunks {
		if strings.HasPrefix(c.Text, "- one") {
			bullets = c.Text
		}
	}
	assert.Equal(t, "- one\n- two\n  wrapped\n- three", bullets)
}

func TestChunk_CRLF(t *testing.T) {
	text := "SKILLS\r\nGo\r\n\r\nEDUCATION\r\nMIT"
	chunks, err := New().Chunk("d", text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, core.SectionSkills, chunks[0].Section)
	assert.Equal(t, "SKILLS\nGo", chunks[0].Text)
	assert.Equal(t, core.SectionEducation, chunks[1].Section)
}

func TestChunk_InlineSectionLabel(t *testing.T) {
	text := "Backend engineer who enjoys distributed systems.\nSkills: Go, Rust, SQL"
	chunks, err := New().Chunk("d", text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, core.SectionSkills, chunks[1].Section)
	assert.Equal(t, "Skills: Go, Rust, SQL", chunks[1].Text)
}

func TestWithMaxChars_Floor(t *testing.T) {
	assert.Equal(t, minMaxChars, New(WithMaxChars(1)).MaxChars())
	assert.Equal(t, DefaultMaxChars, New().MaxChars())
}

func TestHeadingSection(t *testing.T) {
	tests := []struct {
		line      string
		want      core.Section
		isHeading bool
	}{
		{"WORK EXPERIENCE", core.SectionExperience, true},
		{"## Education", core.SectionEducation, true},
		{"Technical Skills", core.SectionSkills, true},
		{"Certifications:", core.SectionCertifications, true},
		{"HOBBIES", core.SectionNone, true},
		{"Skills: Go, Python", core.SectionNone, false},
		{"I have broad experience in many areas of backend work", core.SectionNone, false},
		{"Acme Corp, Senior Engineer", core.SectionNone, false},
		{"Led training sessions", core.SectionNone, false},
		{"MIT", core.SectionNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sec, ok := headingSection(tt.line)
			assert.Equal(t, tt.isHeading, ok)
			assert.Equal(t, tt.want, sec)
		})
	}
}

func TestIsBullet(t *testing.T) {
	assert.True(t, isBullet("- item"))
	assert.True(t, isBullet("• item"))
	assert.True(t, isBullet("12. item"))
	assert.True(t, isBullet("3) item"))
	assert.False(t, isBullet("2024 was a year"))
	assert.False(t, isBullet("-5 degrees"))
}

const sampleJob = `About the role
We run payment infrastructure for small businesses.

Requirements:
- Five years of Go
- PostgreSQL in production

NICE TO HAVE
- Kubernetes
- Terraform`

func TestRequirements_SplitsOnHeadings(t *testing.T) {
	blocks := Requirements(sampleJob, DefaultRequirementChars)

	require.Len(t, blocks, 3)
	assert.Equal(t, "About the role\nWe run payment infrastructure for small businesses.", blocks[0])
	assert.Equal(t, "Requirements:\n- Five years of Go\n- PostgreSQL in production", blocks[1])
	assert.Equal(t, "NICE TO HAVE\n- Kubernetes\n- Terraform", blocks[2])
}

func TestRequirements_PacksLinesUpToLimit(t *testing.T) {
	lines := []string{
		"- build and operate Go services",
		"- design PostgreSQL schemas",
		"- review pull requests daily",
		"- mentor two junior engineers",
	}
	blocks := Requirements(strings.Join(lines, "\n"), 64)

	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.LessOrEqual(t, utf8.RuneCountInString(b), 64)
	}
	// nothing is dropped
	assert.Equal(t, strings.Join(lines, "\n"), strings.Join(blocks, "\n"))
}

func TestRequirements_LongLineKeptWhole(t *testing.T) {
	long := strings.Repeat("distributed systems ", 30)
	blocks := Requirements("Skills\n"+long+"\nGo", 64)

	require.Len(t, blocks, 3)
	assert.Equal(t, strings.TrimSpace(long), blocks[1])
}

func TestRequirements_PlainTextIsOneBlock(t *testing.T) {
	assert.Equal(t, []string{"Backend engineer, Go required."}, Requirements("Backend engineer, Go required.", DefaultRequirementChars))
	assert.Empty(t, Requirements(" \n\n ", DefaultRequirementChars))
}

func TestIsRequirementHeading(t *testing.T) {
	for _, h := range []string{"Requirements", "## Responsibilities", "QUALIFICATIONS", "Nice to have:", "About us"} {
		assert.True(t, isRequirementHeading(h), h)
	}
	for _, h := range []string{"", "- required: Go", "Role: backend", "We are looking for someone to own our role based access control"} {
		assert.False(t, isRequirementHeading(h), h)
	}
}
