// Package docx extracts text from Word documents. Paragraphs styled as
// Title or Heading 1 to 6 become ATX headings.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure Converter implements the interface.
var _ driven.Converter = (*Converter)(nil)

// Converter handles DOCX files.
type Converter struct{}

// New creates a new DOCX converter.
func New() *Converter {
	return &Converter{}
}

// Name identifies the converter in logs.
func (c *Converter) Name() string {
	return "docx"
}

// SupportedExtensions returns the extensions this converter handles.
func (c *Converter) SupportedExtensions() []string {
	return []string{".docx"}
}

// Convert reads word/document.xml from the archive. When the document has
// no top-level heading, the core properties title is used as one.
func (c *Converter) Convert(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %w", domain.ErrInvalidInput, err)
	}
	defer reader.Close()

	body, err := readPart(&reader.Reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if body == nil {
		return "", fmt.Errorf("%w: docx has no word/document.xml", domain.ErrInvalidInput)
	}
	text, hasH1, err := parseDocumentXML(body)
	if err != nil {
		return "", err
	}

	if !hasH1 {
		if title := extractTitle(&reader.Reader); title != "" {
			text = strings.TrimSpace("# " + title + "\n\n" + text)
		}
	}
	return text, nil
}

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
		}
		return content, nil
	}
	return nil, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML returns the paragraphs separated by blank lines and
// whether any became a level-one heading.
func parseDocumentXML(content []byte) (string, bool, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", false, fmt.Errorf("%w: parse document.xml: %w", domain.ErrInvalidInput, err)
	}

	var blocks []string
	hasH1 := false
	for _, para := range doc.Body.Paragraphs {
		var text strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Text {
				text.WriteString(t.Content)
			}
		}
		line := strings.TrimSpace(text.String())
		if line == "" {
			continue
		}
		if level := headingLevel(para.Props.Style.Val); level > 0 {
			hasH1 = hasH1 || level == 1
			line = strings.Repeat("#", level) + " " + line
		}
		blocks = append(blocks, line)
	}
	return strings.Join(blocks, "\n\n"), hasH1, nil
}

// headingLevel maps Word paragraph style ids to heading levels.
// Zero means body text.
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(s, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

func extractTitle(reader *zip.Reader) string {
	content, err := readPart(reader, "docProps/core.xml")
	if err != nil || content == nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
