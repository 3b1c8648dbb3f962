package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/resumatch/core"
)

// DefaultMaxChars is the default upper bound on chunk length in runes.
const DefaultMaxChars = 500

// minMaxChars keeps hard splits from degenerating into single runes.
const minMaxChars = 32

// Chunker splits text into chunks. It is stateless and safe for
// concurrent use.
type Chunker struct {
	maxChars int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxChars sets the maximum chunk length in runes.
func WithMaxChars(n int) Option {
	return func(c *Chunker) {
		if n < minMaxChars {
			n = minMaxChars
		}
		c.maxChars = n
	}
}

// New creates a Chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxChars: DefaultMaxChars}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxChars returns the configured maximum chunk length.
func (c *Chunker) MaxChars() int {
	return c.maxChars
}

type blockKind int

const (
	kindParagraph blockKind = iota
	kindHeading
	kindBullets
)

// span is a byte range of the normalized text.
type span struct {
	start, end int
	section    core.Section
	kind       blockKind
}

// Chunk splits text into ordered chunks belonging to documentID.
// Returns core.ErrEmptyInput if text is empty or whitespace only.
func (c *Chunker) Chunk(documentID, text string) ([]core.Chunk, error) {
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return nil, core.ErrEmptyInput
	}

	var spans []span
	for _, b := range blocks(text) {
		if trimmedLen(text[b.start:b.end]) > c.maxChars {
			spans = append(spans, c.splitSentences(text, b)...)
		} else {
			spans = append(spans, b)
		}
	}
	spans = c.merge(text, spans)

	chunks := make([]core.Chunk, 0, len(spans))
	for _, s := range spans {
		t := strings.TrimSpace(text[s.start:s.end])
		if t == "" {
			continue
		}
		chunks = append(chunks, core.Chunk{
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       t,
			Section:    s.section,
		})
	}
	return chunks, nil
}

// Normalize converts CRLF and CR line endings to LF.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// blocks cuts text into structural blocks.
func blocks(text string) []span {
	var (
		out     []span
		cur     *span
		section = core.SectionNone
	)
	closeBlock := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}
	open := func(start, end int, kind blockKind) {
		cur = &span{start: start, end: end, section: section, kind: kind}
	}

	offset := 0
	for offset < len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += offset
		}
		line := text[offset:lineEnd]
		start, end := offset, lineEnd
		offset = lineEnd + 1

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			closeBlock()

		case isBullet(trimmed):
			if cur == nil || cur.kind != kindBullets {
				closeBlock()
				open(start, end, kindBullets)
			} else {
				cur.end = end
			}

		case cur != nil && cur.kind == kindBullets && isIndented(line):
			// wrapped bullet text
			cur.end = end

		default:
			if sec, ok := headingSection(trimmed); ok {
				closeBlock()
				section = sec
				open(start, end, kindHeading)
				closeBlock()
				continue
			}
			if sec, ok := inlineSection(trimmed); ok {
				closeBlock()
				section = sec
			}
			if cur == nil || cur.kind != kindParagraph {
				closeBlock()
				open(start, end, kindParagraph)
			} else {
				cur.end = end
			}
		}
	}
	closeBlock()
	return out
}

// splitSentences breaks an oversized block on sentence boundaries, packing
// sentences greedily up to the maximum. Sentences that are still too long
// are hard-split on whitespace.
func (c *Chunker) splitSentences(text string, b span) []span {
	var out []span
	piece := span{start: b.start, end: b.start, section: b.section, kind: b.kind}
	flush := func() {
		if strings.TrimSpace(text[piece.start:piece.end]) != "" {
			out = append(out, piece)
		}
	}

	for _, s := range sentences(text, b) {
		switch {
		case trimmedLen(text[s.start:s.end]) > c.maxChars:
			flush()
			out = append(out, c.hardSplit(text, s)...)
			piece = span{start: s.end, end: s.end, section: b.section, kind: b.kind}
		case trimmedLen(text[piece.start:s.end]) > c.maxChars:
			flush()
			piece = s
		default:
			piece.end = s.end
		}
	}
	flush()
	return out
}

// sentences returns the sentence spans of b. A sentence ends after '.',
// '!' or '?' followed by whitespace, or at a line break.
func sentences(text string, b span) []span {
	var out []span
	start := b.start
	for i := b.start; i < b.end; {
		r, size := utf8.DecodeRuneInString(text[i:])
		next := i + size
		boundary := r == '\n'
		if r == '.' || r == '!' || r == '?' {
			boundary = next >= b.end || isSpaceByte(text[next])
		}
		if boundary {
			out = append(out, span{start: start, end: next, section: b.section, kind: b.kind})
			start = next
		}
		i = next
	}
	if start < b.end {
		out = append(out, span{start: start, end: b.end, section: b.section, kind: b.kind})
	}
	return out
}

// hardSplit cuts s into pieces of at most maxChars runes, preferring the
// last whitespace before the limit.
func (c *Chunker) hardSplit(text string, s span) []span {
	var out []span
	start := s.start
	for {
		// skip leading whitespace so the limit applies to visible text
		for start < s.end && isSpaceByte(text[start]) {
			start++
		}
		if trimmedLen(text[start:s.end]) <= c.maxChars {
			break
		}
		limit := runeOffset(text, start, s.end, c.maxChars)
		cut := strings.LastIndexFunc(text[start:limit], unicode.IsSpace)
		if cut <= 0 {
			cut = limit
		} else {
			cut += start
		}
		out = append(out, span{start: start, end: cut, section: s.section, kind: s.kind})
		start = cut
	}
	if strings.TrimSpace(text[start:s.end]) != "" {
		out = append(out, span{start: start, end: s.end, section: s.section, kind: s.kind})
	}
	return out
}

// merge joins neighbouring spans of the same section while the combined
// slice stays within the maximum.
func (c *Chunker) merge(text string, spans []span) []span {
	if len(spans) == 0 {
		return spans
	}
	out := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.section == last.section && s.kind != kindHeading &&
			trimmedLen(text[last.start:s.end]) <= c.maxChars {
			last.end = s.end
			last.kind = s.kind
			continue
		}
		out = append(out, s)
	}
	return out
}

// runeOffset returns the byte offset n runes after start, capped at end.
func runeOffset(text string, start, end, n int) int {
	i := start
	for count := 0; i < end && count < n; count++ {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\v' || b == '\f'
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

var bulletMarkers = []string{"- ", "* ", "+ ", "•", "▪", "·", "◦", "‣", "– "}

func isBullet(trimmed string) bool {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	// numbered: "1." or "12)" followed by a space
	i := 0
	for i < len(trimmed) && i < 3 && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') && trimmed[i+1] == ' '
}
