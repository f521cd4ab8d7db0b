package detector

import (
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

// Heading is one markdown heading found outside code fences.
type Heading struct {
	Level int
	Text  string
}

// Headings returns the headings of text up to maxLevel, in reading order.
func Headings(text string, maxLevel int) []Heading {
	var headings []Heading
	for _, h := range domain.ScanHeadings(text) {
		if h.Level <= maxLevel {
			headings = append(headings, Heading{Level: h.Level, Text: h.Text})
		}
	}
	return headings
}

// HeadingProposals turns H1 and H2 headings into proposals.
// Each heading anchors its own topic.
func HeadingProposals(text string) []domain.TopicProposal {
	headings := Headings(text, 2)
	proposals := make([]domain.TopicProposal, 0, len(headings))
	for _, h := range headings {
		proposals = append(proposals, domain.TopicProposal{
			Title:       h.Text,
			Description: h.Text,
			Headers:     []string{h.Text},
		})
	}
	return proposals
}

// outline renders headings as an indented list for the prompt.
func outline(text string, limit int) string {
	headings := Headings(text, 3)
	if len(headings) == 0 {
		return "(none)"
	}
	if len(headings) > limit {
		headings = headings[:limit]
	}
	var b strings.Builder
	for _, h := range headings {
		b.WriteString(strings.Repeat("  ", h.Level-1))
		b.WriteString("- ")
		b.WriteString(h.Text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
