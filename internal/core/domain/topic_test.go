package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSlugify tests title to slug conversion
func TestSlugify(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Revenue Growth", "revenue_growth"},
		{"  Cost -- Structure!  ", "cost_structure"},
		{"Q3 2024: Results", "q3_2024_results"},
		{"Überblick", "überblick"},
		{"executive_summary", "executive_summary"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.title))
		})
	}
}

// TestSlugAllocator tests collision suffixes and reserved names
func TestSlugAllocator(t *testing.T) {
	a := NewSlugAllocator("report_index")

	assert.Equal(t, "costs", a.Allocate("Costs"))
	assert.Equal(t, "costs_2", a.Allocate("costs"))
	assert.Equal(t, "costs_3", a.Allocate("COSTS!"))
	assert.Equal(t, "topic", a.Allocate("???"))
	assert.Equal(t, "topic_2", a.Allocate(""))
	assert.Equal(t, "report_index_2", a.Allocate("Report Index"))
}

// TestNewLink tests canonical endpoint ordering
func TestNewLink(t *testing.T) {
	l := NewLink("zeta", "alpha", 0.5)
	assert.Equal(t, "alpha", l.SourceID)
	assert.Equal(t, "zeta", l.TargetID)
	assert.Equal(t, "zeta", l.Other("alpha"))
	assert.Equal(t, "alpha", l.Other("zeta"))
	assert.Equal(t, "", l.Other("beta"))
}

// TestRelatedTopics tests per-topic ordering of links
func TestRelatedTopics(t *testing.T) {
	links := []Link{
		NewLink("a", "b", 0.4),
		NewLink("a", "c", 0.9),
		NewLink("a", "d", 0.4),
		NewLink("b", "c", 0.7),
	}

	related := RelatedTopics(links, "a")
	require.Len(t, related, 3)
	assert.Equal(t, Related{TopicID: "c", Similarity: 0.9}, related[0])
	assert.Equal(t, "b", related[1].TopicID)
	assert.Equal(t, "d", related[2].TopicID)

	assert.Empty(t, RelatedTopics(links, "missing"))
}

// TestTopic_IsEmpty tests zero-length topics
func TestTopic_IsEmpty(t *testing.T) {
	assert.True(t, Topic{Start: 4, End: 4}.IsEmpty())
	assert.False(t, Topic{Start: 0, End: 1}.IsEmpty())
}
