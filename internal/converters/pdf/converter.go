// Package pdf extracts text from PDF files with ledongthuc/pdf.
package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// maxFileSize caps files read fully into memory.
const maxFileSize = 200 << 20

// Converter handles PDF files.
type Converter struct{}

// New creates a new PDF converter.
func New() *Converter {
	return &Converter{}
}

// Name identifies the converter in logs.
func (c *Converter) Name() string {
	return "pdf"
}

// SupportedExtensions returns the extensions this converter handles.
func (c *Converter) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Convert extracts the plain text of every page. Pages are separated by a
// blank line so the chunker can cut between them. A page that fails to
// decode is skipped.
func (c *Converter) Convert(ctx context.Context, path string) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	stat, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if stat.Size() > maxFileSize {
		return "", fmt.Errorf("%w: pdf is larger than %d MB", domain.ErrInvalidInput, maxFileSize>>20)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	var pages []string
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Debug("pdf: skipping page %d of %s: %v", i, path, err)
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	logger.Debug("pdf: extracted %d of %d pages from %s", len(pages), reader.NumPage(), path)
	return strings.Join(pages, "\n\n"), nil
}
