package driving

import (
	"context"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

// SplitService turns one document into interlinked topic files.
type SplitService interface {
	// SplitFile converts the file at path and splits it into outputDir.
	SplitFile(ctx context.Context, path, outputDir string, opts SplitOptions) (*SplitResult, error)

	// SplitDocument splits already-converted text into outputDir.
	// Only configuration and output I/O errors are returned; degraded
	// collaborator behaviour is reported in SplitResult.Report.
	SplitDocument(ctx context.Context, doc domain.Document, outputDir string, opts SplitOptions) (*SplitResult, error)
}

// SplitOptions are the per-run engine parameters.
type SplitOptions struct {
	MaxChunkWords     int
	BoundaryTolerance float64
	MinTopics         int
	MaxTopics         int
	KeyConcepts       bool

	Threshold  float64
	MaxLinks   int
	CrossChunk bool
	EmbedChars int

	// Prune removes stale files from the previous run in outputDir.
	Prune bool

	// Export upserts topic vectors to the configured vector store.
	Export bool
}

// OptionsFromSettings derives run options from application settings.
func OptionsFromSettings(s domain.AppSettings) SplitOptions {
	return SplitOptions{
		MaxChunkWords:     s.Split.MaxChunkWords,
		BoundaryTolerance: s.Split.BoundaryTolerance,
		MinTopics:         s.Split.MinTopics,
		MaxTopics:         s.Split.MaxTopics,
		KeyConcepts:       s.Split.KeyConcepts,
		Threshold:         s.Link.Threshold,
		MaxLinks:          s.Link.MaxLinks,
		CrossChunk:        s.Link.CrossChunk,
		EmbedChars:        s.Link.EmbedChars,
		Prune:             s.Output.Prune,
	}
}

// Settings maps the options back onto settings for validation.
func (o SplitOptions) Settings() domain.AppSettings {
	s := domain.AppSettings{}
	s.Split = domain.SplitSettings{
		MaxChunkWords:     o.MaxChunkWords,
		BoundaryTolerance: o.BoundaryTolerance,
		MinTopics:         o.MinTopics,
		MaxTopics:         o.MaxTopics,
		KeyConcepts:       o.KeyConcepts,
	}
	s.Link = domain.LinkSettings{
		Threshold:  o.Threshold,
		MaxLinks:   o.MaxLinks,
		CrossChunk: o.CrossChunk,
		EmbedChars: o.EmbedChars,
	}
	s.Output = domain.OutputSettings{Prune: o.Prune}
	return s
}

// SplitResult is everything one run produced.
type SplitResult struct {
	Chunks []domain.Chunk
	Topics []domain.Topic
	Links  []domain.Link
	Report domain.RunReport
}

// SearchService queries previously exported topics.
type SearchService interface {
	// Query embeds text and returns the k nearest exported topics.
	Query(ctx context.Context, text string, k int) ([]TopicMatch, error)
}

// TopicMatch is one search hit.
type TopicMatch struct {
	Source     string
	TopicID    string
	Title      string
	ChunkIndex int
	Score      float64
	Excerpt    string
}
