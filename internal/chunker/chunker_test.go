package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/notari/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, c.ChunkSize())
	assert.Equal(t, DefaultOverlap, c.Overlap())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"overlap equals size", []Option{WithChunkSize(100), WithOverlap(100)}},
		{"overlap exceeds size", []Option{WithChunkSize(100), WithOverlap(150)}},
		{"zero size", []Option{WithChunkSize(0)}},
		{"negative overlap", []Option{WithOverlap(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidChunking)
		})
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Empty(t, c.Split(""))
}

func TestSplit_ShortText(t *testing.T) {
	c, err := New(WithChunkSize(500), WithOverlap(50))
	require.NoError(t, err)

	chunks := c.Split("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplit_WindowBoundaries(t *testing.T) {
	c, err := New(WithChunkSize(10), WithOverlap(3))
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := c.Split(text)

	// Window i starts at i*(size-overlap) = i*7.
	require.Len(t, chunks, 4)
	assert.Equal(t, "abcdefghij", chunks[0])
	assert.Equal(t, "hijklmnopq", chunks[1])
	assert.Equal(t, "opqrstuvwx", chunks[2])
	assert.Equal(t, "vwxyz", chunks[3])
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	const size, overlap = 50, 10
	c, err := New(WithChunkSize(size), WithOverlap(overlap))
	require.NoError(t, err)

	text := strings.Repeat("0123456789", 37) // 370 characters
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for i := 0; i < len(chunks)-1; i++ {
		cur, next := chunks[i], chunks[i+1]
		assert.Equal(t, cur[len(cur)-overlap:], next[:overlap],
			"chunks %d and %d must overlap by exactly %d characters", i, i+1, overlap)
	}
}

func TestSplit_MultiByteRunes(t *testing.T) {
	c, err := New(WithChunkSize(10), WithOverlap(3))
	require.NoError(t, err)

	// 20 two-byte runes. Byte-offset windows would cut runes in half
	// at every boundary; rune windows must not.
	text := strings.Repeat("é", 20)
	chunks := c.Split(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("é", 10), chunks[0])
	assert.Equal(t, strings.Repeat("é", 10), chunks[1])
	assert.Equal(t, strings.Repeat("é", 6), chunks[2])

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8", i)
	}
}

func TestSplit_MixedWidthOverlap(t *testing.T) {
	const size, overlap = 8, 2
	c, err := New(WithChunkSize(size), WithOverlap(overlap))
	require.NoError(t, err)

	text := "日本語のテキストを分割するテスト、境界は文字単位"
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	total := 0
	for i, chunk := range chunks {
		require.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8", i)
		if i < len(chunks)-1 {
			curRunes := []rune(chunk)
			nextRunes := []rune(chunks[i+1])
			assert.Equal(t, string(curRunes[len(curRunes)-overlap:]), string(nextRunes[:overlap]),
				"chunks %d and %d must overlap by exactly %d characters", i, i+1, overlap)
		}
		total += utf8.RuneCountInString(chunk)
	}

	// Every character appears, counting each overlap region twice.
	want := utf8.RuneCountInString(text) + (len(chunks)-1)*overlap
	assert.Equal(t, want, total)
}

func TestSplit_ChunkCount(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		length  int
		want    int
	}{
		{"exact single window", 100, 20, 100, 2},
		{"one step past", 100, 20, 180, 3},
		{"many windows", 500, 50, 2000, 5},
		{"below window", 500, 50, 499, 2},
		{"under step", 100, 20, 80, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			require.NoError(t, err)

			text := strings.Repeat("x", tt.length)
			chunks := c.Split(text)
			assert.Len(t, chunks, tt.want)

			// Every chunk start must be a multiple of (size - overlap),
			// and the final chunk is clipped at the text length.
			step := tt.size - tt.overlap
			for i, chunk := range chunks {
				start := i * step
				end := start + tt.size
				if end > tt.length {
					end = tt.length
				}
				assert.Len(t, chunk, end-start)
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c, err := New(WithChunkSize(64), WithOverlap(16))
	require.NoError(t, err)

	text := strings.Repeat("the quick brown fox ", 40)
	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}

func TestChunk_BuildsDomainChunks(t *testing.T) {
	c, err := New(WithChunkSize(10), WithOverlap(2))
	require.NoError(t, err)

	chunks := c.Chunk("doc-1", "abcdefghijklmnop")
	require.Len(t, chunks, 2)

	for i, chunk := range chunks {
		assert.Equal(t, "doc-1", chunk.DocumentID)
		assert.Equal(t, i, chunk.Index)
	}
	assert.Equal(t, "abcdefghij", chunks[0].Text)
	assert.Equal(t, "ijklmnop", chunks[1].Text)
}

func TestChunk_EmptyText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Empty(t, c.Chunk("doc-1", ""))
}
