package extract

import (
	"context"
	"testing"

	"github.com/poiesic/resumatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextExtractor(t *testing.T) {
	ctx := context.Background()

	text, err := TextExtractor{}.Extract(ctx, []byte("\xEF\xBB\xBFJane Doe\nGo developer"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo developer", text)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bom only", []byte("\xEF\xBB\xBF")},
		{"pdf", []byte("%PDF-1.7\n...")},
		{"nul bytes", []byte("abc\x00def")},
		{"invalid utf8", []byte("abc\xff")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TextExtractor{}.Extract(ctx, tt.data)
			assert.ErrorIs(t, err, core.ErrUnreadableDocument)
		})
	}
}

func TestTextExtractor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := TextExtractor{}.Extract(ctx, []byte("text"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractorFunc(t *testing.T) {
	var e Extractor = ExtractorFunc(func(_ context.Context, data []byte) (string, error) {
		return string(data) + "!", nil
	})
	out, err := e.Extract(context.Background(), []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}
