// Package compress handles gzip compression of document text for
// at-rest storage. Chunks and passages are always recomputable from
// the decompressed text.
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Text compresses document text with gzip.
func Text(text string) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(text)); err != nil {
		return nil, fmt.Errorf("compressing text: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress restores document text from its gzip form.
func Decompress(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("opening gzip reader: %w", err)
	}
	defer r.Close()

	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompressing text: %w", err)
	}
	return string(text), nil
}
