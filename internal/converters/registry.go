package converters

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/topicnet/internal/converters/docx"
	"github.com/custodia-labs/topicnet/internal/converters/html"
	"github.com/custodia-labs/topicnet/internal/converters/markdown"
	"github.com/custodia-labs/topicnet/internal/converters/pdf"
	"github.com/custodia-labs/topicnet/internal/converters/plaintext"
	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ConverterRegistry = (*Registry)(nil)

// Registry maps file extensions to converters.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.Converter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]driven.Converter)}
}

// Default returns a registry with every built-in converter.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	return r
}

// Register adds a converter. Later registrations win for shared extensions.
func (r *Registry) Register(c driven.Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range c.SupportedExtensions() {
		r.byExt[strings.ToLower(ext)] = c
	}
}

// ForPath returns the converter for the file's extension.
func (r *Registry) ForPath(path string) (driven.Converter, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	c, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		if ext == "" {
			return nil, fmt.Errorf("%w: %s has no extension", domain.ErrUnsupportedFormat, filepath.Base(path))
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}
	return c, nil
}

// Supports reports whether a converter handles the file.
func (r *Registry) Supports(path string) bool {
	_, err := r.ForPath(path)
	return err == nil
}

// Extensions lists every supported extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
