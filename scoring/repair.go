package scoring

import "strings"

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// outermostObject returns the first balanced {...} in s, ignoring braces
// inside strings. ok is false when no complete object exists.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// repairJSON fixes keys that lost their opening quote, a common failure of
// small local models: `{ skills_score": 80` becomes `{ "skills_score": 80`.
// Trailing commas before a closing brace or bracket are dropped too.
func repairJSON(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+16)
	inString := false

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(src) {
				i++
				out = append(out, src[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out = append(out, ch)
		case ',':
			j := skipSpace(src, i+1)
			if j < len(src) && (src[j] == '}' || src[j] == ']') {
				continue
			}
			out = append(out, ch)
			i = quoteKey(src, i+1, &out) - 1
		case '{':
			out = append(out, ch)
			i = quoteKey(src, i+1, &out) - 1
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// quoteKey copies whitespace from i, then, if an identifier followed by `":`
// starts there, emits the missing opening quote. It returns the index of the
// first rune not consumed.
func quoteKey(src []rune, i int, out *[]rune) int {
	j := skipSpace(src, i)
	*out = append(*out, src[i:j]...)
	if j >= len(src) || !isLetter(src[j]) {
		return j
	}
	k := j
	for k < len(src) && (isLetter(src[k]) || src[k] == '_' || (src[k] >= '0' && src[k] <= '9')) {
		k++
	}
	if k+1 < len(src) && src[k] == '"' && src[k+1] == ':' {
		*out = append(*out, '"')
		*out = append(*out, src[j:k]...)
		*out = append(*out, '"')
		return k + 1
	}
	return j
}

func skipSpace(src []rune, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	return i
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
