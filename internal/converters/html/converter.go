// Package html converts HTML files to markdown-flavoured text.
// Tags are stripped; h1 to h6 become ATX headings and list items become
// "- " lines.
package html

import (
	"context"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/custodia-labs/topicnet/internal/converters/plaintext"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag       = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	dropped        = regexp.MustCompile(`(?is)<(script|style|noscript|head|title|svg|template)[^>]*>.*?</(script|style|noscript|head|title|svg|template)>`)
	htmlComments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	headingTag     = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]\s*>`)
	listItemTag    = regexp.MustCompile(`(?i)<li(\s[^>]*)?>`)
	blockElements  = regexp.MustCompile(`(?i)</?(p|div|ul|ol|li|tr|table|blockquote|pre|section|article|header|footer|main|nav|aside|figure)(\s[^>]*)?>`)
	lineBreaks     = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags        = regexp.MustCompile(`<[^>]+>`)
	multiSpaces    = regexp.MustCompile(`[ \t\p{Zs}]+`)
	multiNewlines  = regexp.MustCompile(`\n{3,}`)
	h1Present      = regexp.MustCompile(`(?i)<h1[\s>]`)
	headingMarkers = regexp.MustCompile(`^#{1,6} `)
)

// Converter handles HTML files.
type Converter struct{}

// New creates a new HTML converter.
func New() *Converter {
	return &Converter{}
}

// Name identifies the converter in logs.
func (c *Converter) Name() string {
	return "html"
}

// SupportedExtensions returns the extensions this converter handles.
func (c *Converter) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// Convert reads an HTML file and returns its readable text.
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
	return ToText(text), nil
}

// ToText strips markup from an HTML document. When the body has no h1 the
// <title> becomes the top-level heading.
func ToText(content string) string {
	title := ""
	if !h1Present.MatchString(content) {
		if m := titleTag.FindStringSubmatch(content); len(m) > 1 {
			title = inline(m[1])
		}
	}

	content = dropped.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = headingTag.ReplaceAllStringFunc(content, func(tag string) string {
		m := headingTag.FindStringSubmatch(tag)
		text := inline(m[2])
		if text == "" {
			return "\n\n"
		}
		return "\n\n" + strings.Repeat("#", int(m[1][0]-'0')) + " " + text + "\n\n"
	})
	content = listItemTag.ReplaceAllString(content, "\n- ")
	content = blockElements.ReplaceAllString(content, "\n\n")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
	}
	content = strings.Join(lines, "\n")

	// Bare "- " items left by empty <li> elements.
	content = strings.ReplaceAll(content, "\n-\n", "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	content = strings.TrimSpace(content)

	if title != "" {
		content = "# " + title + "\n\n" + content
	}
	return content
}

// inline flattens a fragment to one line of text.
func inline(fragment string) string {
	text := allTags.ReplaceAllString(fragment, " ")
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")
	return headingMarkers.ReplaceAllString(text, "")
}
