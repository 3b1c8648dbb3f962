// Package extract turns raw document bytes into plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/poiesic/resumatch/core"
)

// Extractor converts raw document bytes to text.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract returns the document text. Returns an error wrapping
	// core.ErrUnreadableDocument when the bytes cannot be read.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextExtractor reads UTF-8 plain text. Binary content, such as an
// unconverted PDF, is rejected.
type TextExtractor struct{}

var _ Extractor = TextExtractor{}

// Extract validates and returns data as text, without a leading byte order mark.
func (TextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(data) == 0 {
		return "", fmt.Errorf("%w: no content", core.ErrUnreadableDocument)
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", fmt.Errorf("%w: PDF input must be converted to text first", core.ErrUnreadableDocument)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: binary content", core.ErrUnreadableDocument)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid UTF-8", core.ErrUnreadableDocument)
	}
	return string(data), nil
}
