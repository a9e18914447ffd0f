package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkTextRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		text string
		size int
	}{
		{"short ascii", "hello world", 4},
		{"exact multiple", "abcdefgh", 4},
		{"single chunk", "tiny", 100},
		{"multibyte runes", "héllo wörld ünïcode çontent", 5},
		{"long text", strings.Repeat("the quick brown fox ", 200), 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := ChunkText(tc.text, tc.size)
			assert.NotEmpty(t, chunks)
			for _, chunk := range chunks {
				assert.LessOrEqual(t, len([]rune(chunk)), tc.size)
			}
			// Concatenation in order reproduces the input exactly.
			assert.Equal(t, tc.text, strings.Join(chunks, ""))
		})
	}
}

func TestChunkTextAllButLastFull(t *testing.T) {
	chunks := ChunkText("abcdefghij", 3)
	assert.Equal(t, []string{"abc", "def", "ghi", "j"}, chunks)
}

func TestChunkTextEmptyInput(t *testing.T) {
	assert.Nil(t, ChunkText("", 10))
}

func TestChunkTextInvalidSize(t *testing.T) {
	assert.Nil(t, ChunkText("content", 0))
	assert.Nil(t, ChunkText("content", -1))
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("déjà vu ", 50)
	assert.Equal(t, ChunkText(text, 7), ChunkText(text, 7))
}
