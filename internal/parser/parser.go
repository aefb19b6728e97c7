// Package parser extracts plain text from uploaded files. Supported
// formats are PDF, Markdown, and plain text, selected by filename
// extension.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/calder-labs/notari/internal/core/domain"
)

// Supported returns true if the filename's extension maps to a known
// format.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".md", ".markdown", ".txt":
		return true
	default:
		return false
	}
}

// Parse extracts plain text from a file's raw bytes, dispatching on
// the filename extension. Unsupported formats are rejected with
// domain.ErrInvalidInput.
func Parse(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ParsePDF(data)
	case ".md", ".markdown":
		return ParseMarkdown(data), nil
	case ".txt":
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: unsupported file format %q", domain.ErrInvalidInput, filepath.Ext(filename))
	}
}

// ParsePDF extracts the plain text content of a PDF.
func ParsePDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	text, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	return string(text), nil
}

var (
	mdCodeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode   = regexp.MustCompile("`[^`]+`")
	mdImages       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLinks        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeadings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s*`)
	mdListMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdMultiNewline = regexp.MustCompile(`\n{3,}`)
)

// ParseMarkdown strips common markdown formatting, leaving plain
// text. This is a simplified implementation that handles common
// cases.
func ParseMarkdown(data []byte) string {
	content := string(data)

	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "")
	content = mdImages.ReplaceAllString(content, "")
	content = mdLinks.ReplaceAllString(content, "$1")
	content = mdHeadings.ReplaceAllString(content, "")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdListMarkers.ReplaceAllString(content, "")
	content = mdNumberedList.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")

	content = mdMultiNewline.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
