package domain

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Document is the engine's immutable input: converted text plus the name
// of the file it came from.
type Document struct {
	// Source is the original file name, used in frontmatter and for
	// naming fallback topics and the master index.
	Source string

	// Text is the full converted text.
	Text string
}

// Stem returns the source file name without directory or extension.
func (d Document) Stem() string {
	return SourceStem(d.Source)
}

// SourceStem strips the directory and extension from a source name.
func SourceStem(source string) string {
	base := filepath.Base(source)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Boundary describes how a chunk's end position was chosen.
type Boundary string

// Chunk boundary kinds, from strongest to weakest.
const (
	// BoundaryEnd means the chunk runs to the end of the document.
	BoundaryEnd Boundary = "end"

	// BoundarySection means the next chunk starts at an H1 or H2 heading.
	BoundarySection Boundary = "section"

	// BoundaryParagraph means the cut falls after a blank line.
	BoundaryParagraph Boundary = "paragraph"

	// BoundarySentence means the cut falls after a sentence terminator.
	BoundarySentence Boundary = "sentence"

	// BoundaryHard means no natural boundary was found in the tolerance
	// window and the word limit forced the cut. A sentence may be split.
	BoundaryHard Boundary = "hard"
)

// IsDegraded reports whether the boundary was a forced cut.
func (b Boundary) IsDegraded() bool {
	return b == BoundaryHard
}

// String returns the string representation.
func (b Boundary) String() string {
	return string(b)
}

// Chunk is a context-safe contiguous slice of a document.
// Chunks are ordered and non-overlapping: EndOffset of chunk i equals
// StartOffset of chunk i+1, and their texts concatenate to the document.
type Chunk struct {
	// Index is the zero-based position of the chunk.
	Index int

	// Text is the exact slice Document.Text[StartOffset:EndOffset].
	Text string

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int

	// StartOffset is the byte offset of the chunk in the document.
	StartOffset int

	// EndOffset is the byte offset one past the chunk's last byte.
	EndOffset int

	// Heading is the first H1 or H2 heading inside the chunk, if any.
	Heading string

	// Boundary records how the chunk's end was chosen.
	Boundary Boundary
}

// Len returns the chunk length in bytes.
func (c Chunk) Len() int {
	return c.EndOffset - c.StartOffset
}

// CountWords counts maximal runs of non-whitespace characters.
func CountWords(text string) int {
	count := 0
	inWord := false
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
		i += size
	}
	return count
}

// HeadingLevel returns the ATX heading level of a markdown line
// ("# Title" is 1, "## Title" is 2) and the heading text. It returns
// 0 when the line is not a heading.
func HeadingLevel(line string) (int, string) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return 0, ""
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, ""
	}
	text := strings.TrimSpace(rest)
	// Closing hashes only count when separated by a space.
	if stripped := strings.TrimRight(text, "#"); stripped == "" || strings.HasSuffix(stripped, " ") {
		text = strings.TrimSpace(stripped)
	}
	if text == "" {
		return 0, ""
	}
	return level, text
}

// HeadingLine is an ATX heading and the byte offset of the line it is on.
type HeadingLine struct {
	Offset int
	Level  int
	Text   string
}

// ScanHeadings returns the headings of text in reading order. Lines inside
// ``` or ~~~ fences are not headings.
func ScanHeadings(text string) []HeadingLine {
	var (
		out    []HeadingLine
		fence  string
		offset int
	)
	for _, raw := range strings.SplitAfter(text, "\n") {
		line := strings.TrimRight(raw, "\r\n")
		pos := offset
		offset += len(raw)

		trimmed := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}
		if level, heading := HeadingLevel(line); level > 0 {
			out = append(out, HeadingLine{Offset: pos, Level: level, Text: heading})
		}
	}
	return out
}
