// Package markdown converts markdown files. Text passes through unchanged
// apart from line endings, front matter and setext headings.
package markdown

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/custodia-labs/topicnet/internal/converters/plaintext"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

var (
	frontMatter  = regexp.MustCompile(`(?s)\A---\n.*?\n(?:---|\.\.\.)\n`)
	setextH1     = regexp.MustCompile(`^=+\s*$`)
	setextH2     = regexp.MustCompile(`^-+\s*$`)
	listItem     = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s`)
	fenceOpening = regexp.MustCompile("^\\s*(```|~~~)")
)

// Converter handles markdown files.
type Converter struct{}

// New creates a new markdown converter.
func New() *Converter {
	return &Converter{}
}

// Name identifies the converter in logs.
func (c *Converter) Name() string {
	return "markdown"
}

// SupportedExtensions returns the extensions this converter handles.
func (c *Converter) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Convert reads a markdown file.
func (c *Converter) Convert(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	text, err := plaintext.Normalise(raw)
	if err != nil {
		return "", err
	}
	return Normalise(text), nil
}

// Normalise drops a leading YAML front matter block and rewrites setext
// headings as ATX headings. Fenced code is left alone.
func Normalise(text string) string {
	text = frontMatter.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	for _, line := range lines {
		if fenceOpening.MatchString(line) {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if !inFence && len(out) > 0 {
			prev := out[len(out)-1]
			if isHeadingText(prev) {
				switch {
				case setextH1.MatchString(line):
					out[len(out)-1] = "# " + strings.TrimSpace(prev)
					continue
				case setextH2.MatchString(line):
					out[len(out)-1] = "## " + strings.TrimSpace(prev)
					continue
				}
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// isHeadingText reports whether a line can be the text of a setext heading.
func isHeadingText(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "|") {
		return false
	}
	if strings.HasPrefix(trimmed, ">") || listItem.MatchString(line) {
		return false
	}
	return !setextH2.MatchString(trimmed) && !setextH1.MatchString(trimmed)
}
