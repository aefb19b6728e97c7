package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/notari/internal/core/domain"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("notes.pdf"))
	assert.True(t, Supported("Notes.MD"))
	assert.True(t, Supported("readme.markdown"))
	assert.True(t, Supported("plain.txt"))
	assert.False(t, Supported("sheet.xlsx"))
	assert.False(t, Supported("noextension"))
}

func TestParse_PlainText(t *testing.T) {
	text, err := Parse("notes.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("image.png", []byte{0x89, 0x50})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseMarkdown(t *testing.T) {
	input := "# Title\n\nSome **bold** text with a [link](https://example.com).\n\n" +
		"- item one\n- item two\n\n```go\nfunc main() {}\n```\n\n> quoted line\n"

	got := ParseMarkdown([]byte(input))

	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "```")
	assert.NotContains(t, got, "https://example.com")
	assert.Contains(t, got, "Title")
	assert.Contains(t, got, "bold")
	assert.Contains(t, got, "link")
	assert.Contains(t, got, "item one")
	assert.Contains(t, got, "quoted line")
}

func TestParsePDF_Garbage(t *testing.T) {
	_, err := ParsePDF([]byte("definitely not a pdf"))
	assert.Error(t, err)
}
