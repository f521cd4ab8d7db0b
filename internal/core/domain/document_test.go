package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCountWords tests whitespace-delimited word counting
func TestCountWords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{"empty", "", 0},
		{"whitespace only", " \n\t ", 0},
		{"single word", "revenue", 1},
		{"leading and trailing space", "  alpha beta  ", 2},
		{"newlines and tabs", "alpha\nbeta\tgamma", 3},
		{"punctuation stays attached", "costs, margins.", 2},
		{"unicode space", "alpha beta", 2},
		{"non-latin", "überblick zusammenfassung", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountWords(tt.text))
		})
	}
}

// TestSourceStem tests stripping directories and extensions
func TestSourceStem(t *testing.T) {
	assert.Equal(t, "annual_report", SourceStem("/data/annual_report.pdf"))
	assert.Equal(t, "notes", SourceStem("notes.md"))
	assert.Equal(t, "README", SourceStem("README"))
	assert.Equal(t, "archive.tar", SourceStem("archive.tar.gz"))
	assert.Equal(t, "report", Document{Source: "in/report.md"}.Stem())
}

// TestHeadingLevel tests ATX heading detection
func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		line  string
		level int
		text  string
	}{
		{"# Title", 1, "Title"},
		{"## Revenue Growth", 2, "Revenue Growth"},
		{"### Detail", 3, "Detail"},
		{"   # Indented", 1, "Indented"},
		{"    # Code block", 0, ""},
		{"#NoSpace", 0, ""},
		{"# Closed ##", 1, "Closed"},
		{"## C#", 2, "C#"},
		{"#", 0, ""},
		{"####### Seven", 0, ""},
		{"plain text", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			level, text := HeadingLevel(tt.line)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.text, text)
		})
	}
}

// TestBoundary_IsDegraded tests that only hard cuts are degraded
func TestBoundary_IsDegraded(t *testing.T) {
	assert.True(t, BoundaryHard.IsDegraded())
	for _, b := range []Boundary{BoundaryEnd, BoundarySection, BoundaryParagraph, BoundarySentence} {
		assert.False(t, b.IsDegraded(), b.String())
	}
}

// TestChunk_Len tests chunk length from offsets
func TestChunk_Len(t *testing.T) {
	c := Chunk{StartOffset: 10, EndOffset: 25}
	assert.Equal(t, 15, c.Len())
}

func TestScanHeadings(t *testing.T) {
	text := "# Real\r\n```go\n# not a heading\n```\n  ## Indented\n~~~\n## hidden\n~~~\n### Deep"

	got := ScanHeadings(text)
	require.Len(t, got, 3)
	assert.Equal(t, HeadingLine{Offset: 0, Level: 1, Text: "Real"}, got[0])
	assert.Equal(t, HeadingLine{Offset: strings.Index(text, "  ## Indented"), Level: 2, Text: "Indented"}, got[1])
	assert.Equal(t, HeadingLine{Offset: strings.Index(text, "### Deep"), Level: 3, Text: "Deep"}, got[2])
}
