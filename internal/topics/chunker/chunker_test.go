package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.maxWords != DefaultMaxWords {
			t.Errorf("expected maxWords %d, got %d", DefaultMaxWords, c.maxWords)
		}
		if c.tolerance != DefaultTolerance {
			t.Errorf("expected tolerance %v, got %v", DefaultTolerance, c.tolerance)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		c := New(WithMaxWords(500), WithTolerance(0.25))
		if c.MaxWords() != 500 {
			t.Errorf("expected maxWords 500, got %d", c.MaxWords())
		}
		if c.tolerance != 0.25 {
			t.Errorf("expected tolerance 0.25, got %v", c.tolerance)
		}
	})

	t.Run("invalid tolerance ignored", func(t *testing.T) {
		c := New(WithTolerance(1.5), WithTolerance(-0.1))
		if c.tolerance != DefaultTolerance {
			t.Errorf("expected default tolerance, got %v", c.tolerance)
		}
	})
}

func TestChunk_InvalidMaxWords(t *testing.T) {
	for _, n := range []int{0, -1, -50000} {
		_, err := New(WithMaxWords(n)).Chunk("some text")
		if !errors.Is(err, domain.ErrInvalidConfiguration) {
			t.Errorf("max %d: expected ErrInvalidConfiguration, got %v", n, err)
		}
	}
}

func TestChunk_EmptyText(t *testing.T) {
	chunks, err := New().Chunk("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunk_SingleChunk(t *testing.T) {
	text := "# Report\n\nRevenue grew.\n"
	chunks, err := New(WithMaxWords(10)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != text || c.StartOffset != 0 || c.EndOffset != len(text) {
		t.Errorf("chunk does not cover the document: %+v", c)
	}
	if c.WordCount != 4 {
		t.Errorf("expected 4 words, got %d", c.WordCount)
	}
	if c.Boundary != domain.BoundaryEnd {
		t.Errorf("expected end boundary, got %s", c.Boundary)
	}
	if c.Heading != "Report" {
		t.Errorf("expected heading Report, got %q", c.Heading)
	}
}

func TestChunk_PrefersParagraph(t *testing.T) {
	text := "a b c.\n\nd e f g h"
	chunks, err := New(WithMaxWords(5), WithTolerance(0.5)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "a b c.\n\n" {
		t.Errorf("unexpected first chunk %q", chunks[0].Text)
	}
	if chunks[0].Boundary != domain.BoundaryParagraph {
		t.Errorf("expected paragraph boundary, got %s", chunks[0].Boundary)
	}
}

func TestChunk_FallsBackToSentence(t *testing.T) {
	text := "one two. three four five six"
	chunks, err := New(WithMaxWords(4), WithTolerance(0.5)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "one two. " || chunks[0].Boundary != domain.BoundarySentence {
		t.Errorf("unexpected first chunk %q (%s)", chunks[0].Text, chunks[0].Boundary)
	}
	if chunks[1].Text != "three four five six" || chunks[1].Boundary != domain.BoundaryEnd {
		t.Errorf("unexpected last chunk %q (%s)", chunks[1].Text, chunks[1].Boundary)
	}
}

func TestChunk_PrefersSection(t *testing.T) {
	text := "## One\nalpha beta\n\ngamma delta\n## Two\nepsilon"
	chunks, err := New(WithMaxWords(7), WithTolerance(0.5)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Boundary != domain.BoundarySection {
		t.Errorf("expected section boundary, got %s", chunks[0].Boundary)
	}
	if chunks[0].Heading != "One" || chunks[1].Heading != "Two" {
		t.Errorf("unexpected headings %q, %q", chunks[0].Heading, chunks[1].Heading)
	}
	if !strings.HasPrefix(chunks[1].Text, "## Two") {
		t.Errorf("second chunk should start at the heading: %q", chunks[1].Text)
	}
}

func TestChunk_HardCutIsFlagged(t *testing.T) {
	text := "a b c d e f g h"
	chunks, err := New(WithMaxWords(3), WithTolerance(0)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a b c ", "d e f ", "g h"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, want[i], c.Text)
		}
	}
	if !chunks[0].Boundary.IsDegraded() || !chunks[1].Boundary.IsDegraded() {
		t.Error("expected hard boundaries to be flagged")
	}
	if chunks[2].Boundary != domain.BoundaryEnd {
		t.Errorf("expected end boundary on last chunk, got %s", chunks[2].Boundary)
	}
}

// TestChunk_Completeness checks reconstruction and the size bound across
// a range of inputs and budgets.
func TestChunk_Completeness(t *testing.T) {
	inputs := []string{
		"single",
		"   leading and trailing   ",
		"Short sentence. Another one! A question? Yes.",
		"# Title\n\nPara one has words.\n\n## Part\n\nPara two, longer, with more words in it.\n\n\n\nEnd.",
		"no punctuation at all just a long run of words without any boundary whatsoever",
		"tabs\tand\tnewlines\nmix\r\nwith crlf\r\n\r\nparagraphs",
		"unicode … ellipsis… «quoted.» (bracketed.) ünïcödé wörds",
		generate(997),
	}

	for i, text := range inputs {
		for _, max := range []int{1, 2, 3, 7, 50, 1000} {
			for _, tol := range []float64{0, 0.1, 0.5} {
				name := fmt.Sprintf("input%d/max%d/tol%v", i, max, tol)
				chunks, err := New(WithMaxWords(max), WithTolerance(tol)).Chunk(text)
				if err != nil {
					t.Fatalf("%s: unexpected error: %v", name, err)
				}
				assertComplete(t, name, text, chunks, max)
			}
		}
	}
}

// TestChunk_LargeDocument checks that 120,000 words under a 50,000 budget
// produce exactly three chunks.
func TestChunk_LargeDocument(t *testing.T) {
	text := generate(120000)
	if n := domain.CountWords(text); n != 120000 {
		t.Fatalf("generator produced %d words", n)
	}

	chunks, err := New(WithMaxWords(50000)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	assertComplete(t, "large", text, chunks, 50000)
	for _, c := range chunks[:2] {
		if c.Boundary.IsDegraded() {
			t.Errorf("chunk %d: expected a natural boundary, got %s", c.Index, c.Boundary)
		}
	}
}

func TestChunk_HeadingsInFencesAreNotSections(t *testing.T) {
	text := "## One\nalpha beta\n```\n# comment\n```\ngamma delta"
	chunks, err := New(WithMaxWords(8), WithTolerance(0.5)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Boundary == domain.BoundarySection {
		t.Errorf("cut at a fenced comment: %q", chunks[0].Text)
	}
	if chunks[0].Heading != "One" || chunks[1].Heading != "" {
		t.Errorf("unexpected headings %q, %q", chunks[0].Heading, chunks[1].Heading)
	}
}

func TestChunk_IndentedHeadingLabelsItsChunk(t *testing.T) {
	text := "alpha beta\n  ## Two\ngamma"
	chunks, err := New(WithMaxWords(3), WithTolerance(0.5)).Chunk(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Boundary != domain.BoundarySection {
		t.Fatalf("expected a section cut, got %+v", chunks)
	}
	if chunks[0].Heading != "" || chunks[1].Heading != "Two" {
		t.Errorf("unexpected headings %q, %q", chunks[0].Heading, chunks[1].Heading)
	}
	assertComplete(t, "indented", text, chunks, 3)
}

// TestChunk_SingleLineInput covers extracted PDF text, which often has no
// line breaks at all. Every cut is hard, and the run must stay linear.
func TestChunk_SingleLineInput(t *testing.T) {
	text := strings.Repeat("word ", 400000)

	started := time.Now()
	chunks, err := New(WithMaxWords(50000)).Chunk(text)
	elapsed := time.Since(started)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 8 {
		t.Fatalf("expected 8 chunks, got %d", len(chunks))
	}
	assertComplete(t, "single line", text, chunks, 50000)
	if elapsed > 3*time.Second {
		t.Errorf("chunking 400k words on one line took %s", elapsed)
	}
}

func assertComplete(t *testing.T, name, text string, chunks []domain.Chunk, max int) {
	t.Helper()
	var b strings.Builder
	offset := 0
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("%s: chunk %d has index %d", name, i, c.Index)
		}
		if c.Text == "" {
			t.Errorf("%s: chunk %d is empty", name, i)
		}
		if c.StartOffset != offset {
			t.Errorf("%s: chunk %d starts at %d, want %d", name, i, c.StartOffset, offset)
		}
		if text[c.StartOffset:c.EndOffset] != c.Text {
			t.Errorf("%s: chunk %d text does not match its offsets", name, i)
		}
		if c.WordCount > max {
			t.Errorf("%s: chunk %d has %d words, max %d", name, i, c.WordCount, max)
		}
		if c.WordCount != domain.CountWords(c.Text) {
			t.Errorf("%s: chunk %d reports %d words, counted %d", name, i, c.WordCount, domain.CountWords(c.Text))
		}
		offset = c.EndOffset
		b.WriteString(c.Text)
	}
	if b.String() != text {
		t.Errorf("%s: chunks do not reconstruct the input", name)
	}
}

// generate builds n words in sentences of ten and paragraphs of ten sentences.
func generate(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("word")
		switch {
		case i == n-1:
			b.WriteString(".")
		case (i+1)%100 == 0:
			b.WriteString(".\n\n")
		case (i+1)%10 == 0:
			b.WriteString(". ")
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}
