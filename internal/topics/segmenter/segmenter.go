// Package segmenter assigns chunk text to topic proposals.
//
// Every byte of a chunk belongs to exactly one topic. The shipped strategy
// places an anchor for each proposal where its heading, title or keywords
// first appear, and gives each topic the text from its anchor up to the
// next anchor. Other strategies can be plugged in through Segmenter as long
// as they return a partition; Verify checks that.
package segmenter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// Segmenter partitions a chunk across its proposals.
type Segmenter interface {
	// Segment returns one topic per proposal. IDs are drawn from ids so
	// they stay unique across the chunks of a document.
	Segment(chunk domain.Chunk, proposals []domain.TopicProposal, ids *domain.SlugAllocator) (Segmentation, error)
}

// Segmentation is the result for one chunk.
type Segmentation struct {
	// Topics are in reading order. Zero-length topics follow the topic
	// that absorbed them.
	Topics   []domain.Topic
	Warnings []domain.Warning
}

// KeywordAnchors is the anchor-based Segmenter.
type KeywordAnchors struct{}

// Ensure KeywordAnchors implements the interface.
var _ Segmenter = (*KeywordAnchors)(nil)

// New creates the anchor-based segmenter.
func New() *KeywordAnchors {
	return &KeywordAnchors{}
}

type anchor struct {
	proposal int
	pos      int
	found    bool
	via      string
}

// Segment implements Segmenter.
func (s *KeywordAnchors) Segment(
	chunk domain.Chunk, proposals []domain.TopicProposal, ids *domain.SlugAllocator,
) (Segmentation, error) {
	if len(proposals) == 0 {
		return Segmentation{}, fmt.Errorf("%w: chunk %d has no proposals", domain.ErrInvalidInput, chunk.Index)
	}
	if ids == nil {
		ids = domain.NewSlugAllocator()
	}

	text := chunk.Text
	lines := headingLines(text)
	anchors := make([]anchor, len(proposals))
	for i, p := range proposals {
		anchors[i] = locate(text, lines, p)
		anchors[i].proposal = i
	}

	topics := make([]domain.Topic, len(proposals))
	for i, p := range proposals {
		topics[i] = domain.Topic{
			ID:          ids.Allocate(p.Title),
			Title:       p.Title,
			Description: p.Description,
			Keywords:    p.Keywords,
			ChunkIndex:  chunk.Index,
		}
	}

	var seg Segmentation
	warn := func(topic int, format string, args ...any) {
		w := domain.WarnChunk(domain.ErrSegmentationAmbiguity, domain.StageSegment, chunk.Index, format, args...)
		w.TopicID = topics[topic].ID
		logger.Warn("%s", w)
		seg.Warnings = append(seg.Warnings, w)
	}

	var placed []anchor
	for _, a := range anchors {
		if a.found {
			placed = append(placed, a)
		} else {
			warn(a.proposal, "no heading, title or keyword found in the text; topic left empty")
		}
	}
	if len(placed) == 0 {
		// Nothing anchored: the whole chunk goes to the first proposal.
		placed = []anchor{{proposal: 0, pos: 0, found: true}}
	}
	sort.SliceStable(placed, func(i, j int) bool {
		if placed[i].pos != placed[j].pos {
			return placed[i].pos < placed[j].pos
		}
		return placed[i].proposal < placed[j].proposal
	})

	// Distinct anchor positions own spans. The earliest-listed proposal at a
	// position wins it; the rest are merged into the winner with no content.
	var owners []anchor
	for _, a := range placed {
		if n := len(owners); n > 0 && owners[n-1].pos == a.pos {
			winner := owners[n-1].proposal
			topics[a.proposal].Start, topics[a.proposal].End = a.pos, a.pos
			topics[a.proposal].MergedInto = topics[winner].ID
			warn(a.proposal, "anchor at byte %d duplicates %q; merged into it", a.pos, topics[winner].ID)
			continue
		}
		owners = append(owners, a)
	}

	for i, a := range owners {
		start := a.pos
		if i == 0 {
			start = 0
		}
		end := len(text)
		if i+1 < len(owners) {
			end = owners[i+1].pos
		}
		t := &topics[a.proposal]
		t.Start, t.End = start, end
		t.Content = text[start:end]
		logger.Debug("chunk %d: topic %q spans [%d,%d) via %s", chunk.Index+1, t.ID, start, end, a.via)
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Start != topics[j].Start {
			return topics[i].Start < topics[j].Start
		}
		return !topics[i].IsEmpty() && topics[j].IsEmpty()
	})
	seg.Topics = topics

	if err := Verify(chunk, topics); err != nil {
		return Segmentation{}, err
	}
	return seg, nil
}

// Verify checks that topics partition the chunk: contents match their
// offsets, non-empty spans tile the text without gaps or overlaps, and
// content lengths sum to the chunk length.
func Verify(chunk domain.Chunk, topics []domain.Topic) error {
	text := chunk.Text
	spans := make([]domain.Topic, 0, len(topics))
	total := 0
	for _, t := range topics {
		if t.Start < 0 || t.End < t.Start || t.End > len(text) {
			return fmt.Errorf("%w: topic %q has span [%d,%d) outside chunk of %d bytes",
				domain.ErrPartitionViolated, t.ID, t.Start, t.End, len(text))
		}
		if t.Content != text[t.Start:t.End] {
			return fmt.Errorf("%w: topic %q content does not match its span", domain.ErrPartitionViolated, t.ID)
		}
		total += len(t.Content)
		if !t.IsEmpty() {
			spans = append(spans, t)
		}
	}
	if total != len(text) {
		return fmt.Errorf("%w: chunk %d has %d bytes but topics hold %d",
			domain.ErrPartitionViolated, chunk.Index, len(text), total)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	next := 0
	for _, t := range spans {
		if t.Start != next {
			return fmt.Errorf("%w: topic %q starts at %d, expected %d", domain.ErrPartitionViolated, t.ID, t.Start, next)
		}
		next = t.End
	}
	return nil
}

type headingLine struct {
	pos  int
	text string
}

// headingLines returns the headings outside code fences with their line offsets.
func headingLines(text string) []headingLine {
	found := domain.ScanHeadings(text)
	out := make([]headingLine, len(found))
	for i, h := range found {
		out[i] = headingLine{pos: h.Offset, text: h.Text}
	}
	return out
}

// locate finds a proposal's anchor, preferring stronger evidence:
// a heading equal to one of its headers or its title, then a heading
// containing the title, then the title anywhere, then the earliest keyword.
func locate(text string, headings []headingLine, p domain.TopicProposal) anchor {
	for _, want := range append(append([]string{}, p.Headers...), p.Title) {
		for _, h := range headings {
			if strings.EqualFold(strings.TrimSpace(want), h.text) {
				return anchor{pos: h.pos, found: true, via: "heading"}
			}
		}
	}
	if title := strings.TrimSpace(p.Title); title != "" {
		for _, h := range headings {
			if findTerm(h.text, title) >= 0 {
				return anchor{pos: h.pos, found: true, via: "heading"}
			}
		}
		if pos := findTerm(text, title); pos >= 0 {
			return anchor{pos: lineStart(text, pos), found: true, via: "title"}
		}
	}

	best := -1
	for _, kw := range p.Keywords {
		if pos := findTerm(text, kw); pos >= 0 && (best < 0 || pos < best) {
			best = pos
		}
	}
	if best >= 0 {
		return anchor{pos: lineStart(text, best), found: true, via: "keyword"}
	}
	return anchor{}
}

// findTerm returns the byte offset of the first case-insensitive,
// whole-word occurrence of term. Whitespace in the term matches any run
// of whitespace, so phrases survive line wrapping.
func findTerm(text, term string) int {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return -1
	}
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(fields, `\s+`))
	if err != nil {
		return -1
	}
	for offset := 0; offset < len(text); {
		loc := re.FindStringIndex(text[offset:])
		if loc == nil {
			break
		}
		start, end := offset+loc[0], offset+loc[1]
		if wordEdge(text, start, true) && wordEdge(text, end, false) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return -1
}

// wordEdge reports whether pos is not inside a word. before selects the
// rune preceding pos; otherwise the rune at pos is checked.
func wordEdge(text string, pos int, before bool) bool {
	var r rune
	if before {
		if pos == 0 {
			return true
		}
		r, _ = utf8.DecodeLastRuneInString(text[:pos])
	} else {
		if pos >= len(text) {
			return true
		}
		r, _ = utf8.DecodeRuneInString(text[pos:])
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func lineStart(text string, pos int) int {
	return strings.LastIndexByte(text[:pos], '\n') + 1
}
