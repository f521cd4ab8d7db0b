package domain

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// TopicProposal is a topic suggested for a chunk before any content is
// assigned to it.
type TopicProposal struct {
	// Title is the human-readable topic name.
	Title string

	// Description is a one-line summary.
	Description string

	// Keywords are terms expected to appear in the topic's content.
	Keywords []string

	// Headers are section headings the proposer associated with the topic.
	// The segmenter prefers them as anchors.
	Headers []string
}

// Topic is a named span of chunk content.
type Topic struct {
	// ID is the document-unique slug also used as the file name.
	ID string

	// Title is the human-readable topic name.
	Title string

	// Description is a one-line summary.
	Description string

	// Keywords are the proposal's keywords.
	Keywords []string

	// ChunkIndex is the chunk the topic belongs to.
	ChunkIndex int

	// Content is the exact span of chunk text assigned to the topic.
	Content string

	// Start is the byte offset of Content within the chunk text.
	Start int

	// End is the byte offset one past Content within the chunk text.
	End int

	// MergedInto names the topic that absorbed this one's span when its
	// anchor duplicated an earlier proposal's. Empty otherwise.
	MergedInto string
}

// IsEmpty reports whether the topic holds no content.
// Empty topics are never written and never linked.
func (t Topic) IsEmpty() bool {
	return t.Start == t.End
}

// Link is a similarity-weighted relation between two topics.
// SourceID is always lexically smaller than TargetID.
type Link struct {
	SourceID   string
	TargetID   string
	Similarity float64
}

// NewLink returns a link with its endpoints in canonical order.
func NewLink(a, b string, similarity float64) Link {
	if b < a {
		a, b = b, a
	}
	return Link{SourceID: a, TargetID: b, Similarity: similarity}
}

// Other returns the partner of id in the link, or "" if id is not an endpoint.
func (l Link) Other(id string) string {
	switch id {
	case l.SourceID:
		return l.TargetID
	case l.TargetID:
		return l.SourceID
	default:
		return ""
	}
}

// Related is a link as seen from one of its endpoints.
type Related struct {
	TopicID    string
	Similarity float64
}

// RelatedTopics returns the partners of id, ordered by similarity
// descending and then by id ascending.
func RelatedTopics(links []Link, id string) []Related {
	var related []Related
	for _, l := range links {
		if other := l.Other(id); other != "" {
			related = append(related, Related{TopicID: other, Similarity: l.Similarity})
		}
	}
	sort.SliceStable(related, func(i, j int) bool {
		if related[i].Similarity != related[j].Similarity {
			return related[i].Similarity > related[j].Similarity
		}
		return related[i].TopicID < related[j].TopicID
	})
	return related
}

// Slugify turns a title into a file-name-safe identifier: lower-case
// letters and digits with every other run of characters collapsed to "_".
func Slugify(title string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// SlugAllocator hands out unique slugs within one document.
// Collisions receive numeric suffixes: "costs", "costs_2", "costs_3".
type SlugAllocator struct {
	used map[string]bool
}

// NewSlugAllocator returns an allocator that never hands out the reserved names.
func NewSlugAllocator(reserved ...string) *SlugAllocator {
	a := &SlugAllocator{used: make(map[string]bool)}
	for _, r := range reserved {
		a.used[r] = true
	}
	return a
}

// Allocate returns a unique slug for the title.
func (a *SlugAllocator) Allocate(title string) string {
	base := Slugify(title)
	if base == "" {
		base = "topic"
	}
	slug := base
	for n := 2; a.used[slug]; n++ {
		slug = base + "_" + strconv.Itoa(n)
	}
	a.used[slug] = true
	return slug
}
