package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
	"github.com/custodia-labs/topicnet/internal/topics/segmenter"
)

// sectionedDocument builds one H2 section per name, each exactly
// wordsPerSection words long including its three-word heading.
func sectionedDocument(names []string, wordsPerSection int) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString("## " + name + "\n\n")
		body := wordsPerSection - 1 - len(strings.Fields(name))
		for i := 0; i < body; i++ {
			b.WriteString("word")
			if (i+1)%10 == 0 {
				b.WriteByte('.')
			}
			if (i+1)%100 == 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func sectionNames(n int) []string {
	names := []string{"Revenue Growth", "Revenue Outlook"}
	for i := 2; i < n; i++ {
		names = append(names, fmt.Sprintf("Section %d", i))
	}
	return names
}

func testOptions() driving.SplitOptions {
	opts := driving.OptionsFromSettings(domain.DefaultAppSettings())
	opts.MaxTopics = 5
	return opts
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSplitDocument_LargeDocument(t *testing.T) {
	names := sectionNames(15)
	text := sectionedDocument(names, 8000)
	require.Equal(t, 120000, domain.CountWords(text))

	llm := &mockLLM{limit: 4}
	embedder := &headingEmbedder{vectors: revenueVectors(names)}
	svc := NewSplitService(nil, llm, embedder)
	dir := t.TempDir()

	result, err := svc.SplitDocument(context.Background(),
		domain.Document{Source: "annual_report.md", Text: text}, dir, testOptions())
	require.NoError(t, err)

	require.Len(t, result.Chunks, 3)
	assert.Equal(t, 3, result.Report.Chunks)
	assert.Equal(t, 0, result.Report.FallbackChunks)
	assert.Equal(t, 0, result.Report.DegradedBoundaries)

	var rebuilt strings.Builder
	for _, c := range result.Chunks {
		assert.LessOrEqual(t, c.WordCount, 50000)
		wantBoundary := domain.BoundarySection
		if c.Index == len(result.Chunks)-1 {
			wantBoundary = domain.BoundaryEnd
		}
		assert.Equal(t, wantBoundary, c.Boundary, "chunk %d", c.Index)
		rebuilt.WriteString(c.Text)

		var own []domain.Topic
		for _, topic := range result.Topics {
			if topic.ChunkIndex == c.Index {
				own = append(own, topic)
			}
		}
		assert.GreaterOrEqual(t, len(own), 3, "chunk %d", c.Index)
		assert.LessOrEqual(t, len(own), 5, "chunk %d", c.Index)
		assert.NoError(t, segmenter.Verify(c, own))
	}
	assert.Equal(t, text, rebuilt.String())

	require.Len(t, result.Links, 1)
	assert.Equal(t, "revenue_growth", result.Links[0].SourceID)
	assert.Equal(t, "revenue_outlook", result.Links[0].TargetID)
	assert.InDelta(t, 0.82, result.Links[0].Similarity, 1e-6)

	assert.Equal(t, len(result.Topics), result.Report.Topics)
	require.Len(t, result.Report.Files, result.Report.Topics+1)
	index := result.Report.Files[len(result.Report.Files)-1]
	assert.Equal(t, filepath.Join(dir, "annual_report_index.md"), index)
	assert.Contains(t, readFile(t, index), fmt.Sprintf("%d topics detected across 3 chunks", result.Report.Topics))

	growth := readFile(t, filepath.Join(dir, "revenue_growth.md"))
	assert.Contains(t, growth, "- [[revenue_outlook|Revenue Outlook]] (82%)")
	outlook := readFile(t, filepath.Join(dir, "revenue_outlook.md"))
	assert.Contains(t, outlook, "- [[revenue_growth|Revenue Growth]] (82%)")
	assert.Contains(t, readFile(t, filepath.Join(dir, "section_2.md")), "*No related topics found.*")
}

func TestSplitDocument_EmptyDocument(t *testing.T) {
	svc := NewSplitService(nil, &mockLLM{}, &headingEmbedder{})
	dir := t.TempDir()

	result, err := svc.SplitDocument(context.Background(),
		domain.Document{Source: "blank.txt", Text: " \n\t "}, dir, testOptions())
	require.NoError(t, err)

	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.Topics)
	assert.Equal(t, 1, result.Report.CountWarnings(domain.ErrEmptyDocument))
	require.Len(t, result.Report.Files, 1)
	assert.Contains(t, readFile(t, result.Report.Files[0]), "0 topics detected")
}

func TestSplitDocument_WithoutCollaborators(t *testing.T) {
	text := sectionedDocument([]string{"Intro Notes", "Usage Notes"}, 50)
	svc := NewSplitService(nil, nil, nil)

	result, err := svc.SplitDocument(context.Background(),
		domain.Document{Source: "guide.md", Text: text}, t.TempDir(), testOptions())
	require.NoError(t, err)

	require.Len(t, result.Topics, 2)
	assert.Equal(t, "intro_notes", result.Topics[0].ID)
	assert.Equal(t, "usage_notes", result.Topics[1].ID)
	assert.Empty(t, result.Links)
	assert.Equal(t, 1, result.Report.FallbackChunks)
	assert.Equal(t, 1, result.Report.CountWarnings(domain.ErrEmbeddingUnavailable))
}

func TestSplitDocument_LLMFailureFallsBack(t *testing.T) {
	text := sectionedDocument([]string{"Intro Notes", "Usage Notes"}, 50)
	llm := &mockLLM{err: errBoom}
	svc := NewSplitService(nil, llm, nil)

	result, err := svc.SplitDocument(context.Background(),
		domain.Document{Source: "guide.md", Text: text}, t.TempDir(), testOptions())
	require.NoError(t, err)

	assert.Len(t, result.Topics, 2)
	assert.Equal(t, 1, llm.prompts)
	assert.Equal(t, 1, result.Report.CountWarnings(domain.ErrCollaboratorUnavailable))
	assert.Equal(t, 1, result.Report.FallbackChunks)
}

func TestSplitDocument_Export(t *testing.T) {
	names := sectionNames(3)
	text := sectionedDocument(names, 60)
	store := &mockVectorStore{}
	svc := NewSplitService(nil, &mockLLM{}, &headingEmbedder{vectors: revenueVectors(names)})
	svc.SetVectorStore(store)

	opts := testOptions()
	opts.Export = true
	result, err := svc.SplitDocument(context.Background(),
		domain.Document{Source: "q3.md", Text: text}, t.TempDir(), opts)
	require.NoError(t, err)

	assert.Empty(t, result.Report.Warnings)
	assert.Equal(t, 16, store.dims)
	assert.Equal(t, []string{"q3.md"}, store.deleted)
	require.Len(t, store.points, 3)
	first := store.points[0]
	assert.Equal(t, PointID("q3.md", "revenue_growth"), first.ID)
	assert.Equal(t, "revenue_growth", first.Payload["topic_id"])
	assert.Equal(t, "Revenue Growth", first.Payload["title"])
	assert.Equal(t, "q3.md", first.Payload["source"])
	assert.Equal(t, 0, first.Payload["chunk_index"])
}

func TestSplitDocument_ExportFailuresAreWarnings(t *testing.T) {
	names := sectionNames(2)
	text := sectionedDocument(names, 60)
	opts := testOptions()
	opts.Export = true

	t.Run("no store", func(t *testing.T) {
		svc := NewSplitService(nil, &mockLLM{}, &headingEmbedder{vectors: revenueVectors(names)})
		result, err := svc.SplitDocument(context.Background(),
			domain.Document{Source: "q3.md", Text: text}, t.TempDir(), opts)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Report.CountWarnings(domain.ErrVectorStoreUnavailable))
		assert.Len(t, result.Report.Files, 3)
	})

	t.Run("upsert fails", func(t *testing.T) {
		svc := NewSplitService(nil, &mockLLM{}, &headingEmbedder{vectors: revenueVectors(names)})
		svc.SetVectorStore(&mockVectorStore{upsertErr: errBoom})
		dir := t.TempDir()
		result, err := svc.SplitDocument(context.Background(),
			domain.Document{Source: "q3.md", Text: text}, dir, opts)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Report.CountWarnings(domain.ErrCollaboratorUnavailable))
		assert.Contains(t, readFile(t, filepath.Join(dir, "q3_index.md")), "upsert points: boom")
	})
}

func TestSplitDocument_InvalidConfiguration(t *testing.T) {
	svc := NewSplitService(nil, nil, nil)
	doc := domain.Document{Source: "a.md", Text: "some words"}

	opts := testOptions()
	opts.MinTopics, opts.MaxTopics = 6, 2
	_, err := svc.SplitDocument(context.Background(), doc, t.TempDir(), opts)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = svc.SplitDocument(context.Background(), doc, "", testOptions())
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSplitDocument_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewSplitService(nil, &mockLLM{}, nil)
	_, err := svc.SplitDocument(ctx, domain.Document{Source: "a.md", Text: "## A\n\nsome words"}, t.TempDir(), testOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitFile(t *testing.T) {
	text := sectionedDocument([]string{"Intro Notes", "Usage Notes"}, 40)
	registry := &mockRegistry{}
	registry.Register(&mockConverter{text: text})
	svc := NewSplitService(registry, nil, nil)

	dir := t.TempDir()
	result, err := svc.SplitFile(context.Background(), filepath.Join("docs", "guide.md"), dir, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "guide.md", result.Report.Source)
	assert.FileExists(t, filepath.Join(dir, "guide_index.md"))

	_, err = svc.SplitFile(context.Background(), "guide.docx", dir, testOptions())
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	failing := &mockRegistry{}
	failing.Register(&mockConverter{err: errBoom})
	_, err = NewSplitService(failing, nil, nil).SplitFile(context.Background(), "guide.md", dir, testOptions())
	assert.ErrorIs(t, err, errBoom)
}

func TestPointID_Stable(t *testing.T) {
	assert.Equal(t, PointID("a.md", "intro"), PointID("a.md", "intro"))
	assert.NotEqual(t, PointID("a.md", "intro"), PointID("b.md", "intro"))
	assert.Len(t, PointID("a.md", "intro"), 36)
}

func TestSplitDocument_ReloadsPromptsEachRun(t *testing.T) {
	prompts := &countingPromptStore{}
	svc := NewSplitService(nil, nil, nil)
	svc.SetPromptStore(prompts)

	doc := domain.Document{Source: "guide.md", Text: sectionedDocument([]string{"Intro Notes"}, 30)}
	for i := 0; i < 2; i++ {
		_, err := svc.SplitDocument(context.Background(), doc, t.TempDir(), testOptions())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, prompts.reloads)
}
