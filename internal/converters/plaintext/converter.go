// Package plaintext converts plain text files.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Converter handles plain text files.
type Converter struct{}

// New creates a new plain text converter.
func New() *Converter {
	return &Converter{}
}

// Name identifies the converter in logs.
func (c *Converter) Name() string {
	return "plaintext"
}

// SupportedExtensions returns the extensions this converter handles.
func (c *Converter) SupportedExtensions() []string {
	return []string{".txt", ".text"}
}

// Convert reads the file as UTF-8 text with line endings normalised.
func (c *Converter) Convert(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return Normalise(raw)
}

// Normalise strips a UTF-8 BOM and converts CRLF and CR line endings to LF.
// Content that is not valid UTF-8 is rejected as binary.
func Normalise(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: content is not valid UTF-8 text", domain.ErrInvalidInput)
	}
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	raw = bytes.ReplaceAll(raw, []byte("\r"), []byte("\n"))
	return string(raw), nil
}
