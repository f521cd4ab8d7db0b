// Package chunker splits long documents into context-safe chunks.
//
// Chunks never exceed the word budget. Cut points are chosen at the
// strongest natural boundary close to the limit: a section heading, then
// a blank line, then a sentence end. When none exists inside the tolerance
// window the chunk is cut at the limit and flagged as a hard boundary.
package chunker

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// DefaultMaxWords is the default word budget per chunk.
const DefaultMaxWords = 50000

// DefaultTolerance is the default fraction of the budget searched for a boundary.
const DefaultTolerance = 0.1

// Chunker splits text at word-budget boundaries.
type Chunker struct {
	maxWords  int
	tolerance float64
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxWords sets the word budget per chunk.
// Non-positive values are kept so Chunk can reject them.
func WithMaxWords(n int) Option {
	return func(c *Chunker) {
		c.maxWords = n
	}
}

// WithTolerance sets the boundary search window as a fraction of the budget.
func WithTolerance(f float64) Option {
	return func(c *Chunker) {
		if f >= 0 && f < 1 {
			c.tolerance = f
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxWords:  DefaultMaxWords,
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxWords returns the configured word budget.
func (c *Chunker) MaxWords() int {
	return c.maxWords
}

// word is the byte span of one run of non-whitespace characters.
// lineStart is set when only spaces or tabs precede it on its line, and
// section when that line is an H1 or H2 heading outside a code fence.
type word struct {
	start, end int
	lineStart  bool
	section    bool
}

// Chunk splits text into ordered, contiguous chunks whose texts
// concatenate back to the input. Empty input yields no chunks.
func (c *Chunker) Chunk(text string) ([]domain.Chunk, error) {
	if c.maxWords <= 0 {
		return nil, fmt.Errorf("%w: max chunk words must be positive, got %d",
			domain.ErrInvalidConfiguration, c.maxWords)
	}
	if text == "" {
		return nil, nil
	}

	sections := sectionHeadings(text)
	words := scanWords(text, sections)
	if len(words) <= c.maxWords {
		return []domain.Chunk{build(text, sections, 0, 0, len(text), len(words), domain.BoundaryEnd)}, nil
	}

	window := int(float64(c.maxWords) * c.tolerance)
	chunks := make([]domain.Chunk, 0, len(words)/c.maxWords+1)
	start, first := 0, 0

	for {
		if len(words)-first <= c.maxWords {
			chunks = append(chunks, build(text, sections, len(chunks), start, len(text), len(words)-first, domain.BoundaryEnd))
			break
		}

		limit := first + c.maxWords
		low := limit - window
		if low <= first {
			low = first + 1
		}

		cut, kind := bestCut(text, words, low, limit)
		end := words[cut].start
		chunks = append(chunks, build(text, sections, len(chunks), start, end, cut-first, kind))
		if kind.IsDegraded() {
			logger.Warn("chunk %d: no natural boundary within %d words of the limit, cut at word %d",
				len(chunks), window, cut)
		}

		start, first = end, cut
	}

	logger.Debug("chunker: %d words split into %d chunks (max %d)", len(words), len(chunks), c.maxWords)
	return chunks, nil
}

func build(text string, sections []section, index, start, end, wordCount int, kind domain.Boundary) domain.Chunk {
	return domain.Chunk{
		Index:       index,
		Text:        text[start:end],
		WordCount:   wordCount,
		StartOffset: start,
		EndOffset:   end,
		Heading:     headingIn(sections, start, end),
		Boundary:    kind,
	}
}

// bestCut picks the index of the word that starts the next chunk.
// Candidates lie in [low, limit]; the chunk then holds at most maxWords words.
func bestCut(text string, words []word, low, limit int) (int, domain.Boundary) {
	for _, kind := range []domain.Boundary{domain.BoundarySection, domain.BoundaryParagraph, domain.BoundarySentence} {
		for k := limit; k >= low; k-- {
			if boundaryAt(text, words, k) == kind {
				return k, kind
			}
		}
	}
	return limit, domain.BoundaryHard
}

// boundaryAt classifies the gap before word k. It only looks at the gap
// and the previous word, so a window scan stays linear in its length.
func boundaryAt(text string, words []word, k int) domain.Boundary {
	prev, next := words[k-1], words[k]
	if next.section {
		return domain.BoundarySection
	}
	if strings.Count(text[prev.end:next.start], "\n") >= 2 {
		return domain.BoundaryParagraph
	}
	if endsSentence(text[prev.start:prev.end]) {
		return domain.BoundarySentence
	}
	return ""
}

// section is an H1 or H2 heading outside code fences. line is the offset
// of its line and pos the offset of its first '#'.
type section struct {
	line, pos int
	text      string
}

func sectionHeadings(text string) []section {
	var out []section
	for _, h := range domain.ScanHeadings(text) {
		if h.Level <= 2 {
			pos := h.Offset + strings.IndexByte(text[h.Offset:], '#')
			out = append(out, section{line: h.Offset, pos: pos, text: h.Text})
		}
	}
	return out
}

// scanWords splits text into words in one pass. sections must be in
// reading order.
func scanWords(text string, sections []section) []word {
	var (
		words     []word
		start     = -1
		lineOff   = 0
		blankLead = true
		next      = 0
	)
	add := func(from, to int) {
		w := word{start: from, end: to, lineStart: blankLead}
		if w.lineStart {
			for next < len(sections) && sections[next].line < lineOff {
				next++
			}
			w.section = next < len(sections) && sections[next].line == lineOff
		}
		words = append(words, w)
		blankLead = false
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			if start >= 0 {
				add(start, i)
				start = -1
			}
			switch r {
			case '\n':
				lineOff, blankLead = i+size, true
			case ' ', '\t':
			default:
				blankLead = false
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		add(start, len(text))
	}
	return words
}

// headingIn returns the first section heading that starts in [start, end).
func headingIn(sections []section, start, end int) string {
	i := sort.Search(len(sections), func(i int) bool { return sections[i].pos >= start })
	if i < len(sections) && sections[i].pos < end {
		return sections[i].text
	}
	return ""
}

// endsSentence reports whether a word closes a sentence, allowing trailing
// quotes and brackets after the terminator.
func endsSentence(w string) bool {
	w = strings.TrimRight(w, "\"')]}’”»")
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") ||
		strings.HasSuffix(w, "?") || strings.HasSuffix(w, "…")
}
