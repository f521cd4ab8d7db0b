package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
	"github.com/custodia-labs/topicnet/internal/logger"
	"github.com/custodia-labs/topicnet/internal/topics/assembler"
	"github.com/custodia-labs/topicnet/internal/topics/chunker"
	"github.com/custodia-labs/topicnet/internal/topics/detector"
	"github.com/custodia-labs/topicnet/internal/topics/linker"
	"github.com/custodia-labs/topicnet/internal/topics/segmenter"
)

// Ensure SplitService implements the interface.
var _ driving.SplitService = (*SplitService)(nil)

// SplitService runs the chunk, detect, segment, link and assemble pipeline
// for one document at a time. It keeps no per-document state, so separate
// documents may be split concurrently.
type SplitService struct {
	converters driven.ConverterRegistry
	llm        driven.LLMService
	embedder   driven.EmbeddingService
	cache      driven.EmbeddingCache
	vectors    driven.VectorStore
	prompts    driven.PromptStore
	segmenter  segmenter.Segmenter
}

// NewSplitService creates a new split service.
// The llm and embedder parameters are optional (can be nil): detection then
// falls back to headings and topics are written without links.
func NewSplitService(
	converters driven.ConverterRegistry,
	llm driven.LLMService,
	embedder driven.EmbeddingService,
) *SplitService {
	return &SplitService{
		converters: converters,
		llm:        llm,
		embedder:   embedder,
		segmenter:  segmenter.New(),
	}
}

// SetEmbeddingCache sets the cache consulted before embedding topics.
func (s *SplitService) SetEmbeddingCache(cache driven.EmbeddingCache) {
	s.cache = cache
}

// SetVectorStore sets the store topic vectors are exported to.
func (s *SplitService) SetVectorStore(store driven.VectorStore) {
	s.vectors = store
}

// SetPromptStore implements driven.PromptStoreAware.
func (s *SplitService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// SetSegmenter replaces the anchor-based segmenter.
func (s *SplitService) SetSegmenter(seg segmenter.Segmenter) {
	if seg != nil {
		s.segmenter = seg
	}
}

// SplitFile converts the file at path and splits it into outputDir.
func (s *SplitService) SplitFile(
	ctx context.Context, path, outputDir string, opts driving.SplitOptions,
) (*driving.SplitResult, error) {
	if s.converters == nil {
		return nil, fmt.Errorf("convert %s: no converters registered", path)
	}
	conv, err := s.converters.ForPath(path)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}

	done := logger.Timed("convert")
	text, err := conv.Convert(ctx, path)
	done()
	if err != nil {
		return nil, fmt.Errorf("convert %s with %s: %w", path, conv.Name(), err)
	}
	logger.Debug("converted %s with %s (%d bytes)", path, conv.Name(), len(text))

	return s.SplitDocument(ctx, domain.Document{Source: filepath.Base(path), Text: text}, outputDir, opts)
}

// SplitDocument splits already-converted text into outputDir.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *SplitService) SplitDocument(
	ctx context.Context, doc domain.Document, outputDir string, opts driving.SplitOptions,
) (*driving.SplitResult, error) {
	if err := opts.Settings().Validate(); err != nil {
		return nil, err
	}
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory is required", domain.ErrInvalidConfiguration)
	}

	report := domain.RunReport{
		RunID:     uuid.New().String(),
		Source:    doc.Source,
		OutputDir: outputDir,
		Words:     domain.CountWords(doc.Text),
		StartedAt: time.Now(),
	}
	logger.Section("Split " + doc.Source)
	logger.Debug("run %s: %d words", report.RunID, report.Words)

	// 1. Chunk
	chunks, err := chunker.New(
		chunker.WithMaxWords(opts.MaxChunkWords),
		chunker.WithTolerance(opts.BoundaryTolerance),
	).Chunk(doc.Text)
	if err != nil {
		return nil, err
	}
	if report.Words == 0 {
		chunks = nil
		report.AddWarnings(domain.Warn(domain.ErrEmptyDocument, domain.StageChunk, "document holds no words"))
	}
	for _, c := range chunks {
		if c.Boundary.IsDegraded() {
			report.DegradedBoundaries++
			report.AddWarnings(domain.WarnChunk(nil, domain.StageChunk, c.Index,
				"no natural boundary near the word limit; cut after %d words", c.WordCount))
		}
	}

	// 2. Detect and segment, one chunk at a time
	// Templates may have been edited since the last run in this process.
	if s.prompts != nil {
		s.prompts.Reload()
	}
	det := detector.New(s.llm, detector.WithPromptStore(s.prompts))
	ids := domain.NewSlugAllocator(assembler.IndexName(doc.Source))
	stem := doc.Stem()
	if stem == "" {
		stem = "document"
	}

	var topics []domain.Topic
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		title := stem
		if len(chunks) > 1 {
			title = fmt.Sprintf("%s (part %d)", stem, c.Index+1)
		}
		detection := det.Detect(ctx, detector.Request{
			Text:          c.Text,
			ChunkIndex:    c.Index,
			FallbackTitle: title,
			MinTopics:     opts.MinTopics,
			MaxTopics:     opts.MaxTopics,
		})
		report.AddWarnings(detection.Warnings...)
		if detection.Source.IsFallback() {
			report.FallbackChunks++
		}

		seg, err := s.segmenter.Segment(c, detection.Proposals, ids)
		if err != nil {
			return nil, fmt.Errorf("segment chunk %d: %w", c.Index+1, err)
		}
		report.AddWarnings(seg.Warnings...)
		topics = append(topics, seg.Topics...)
		logger.Info("chunk %d/%d: %d topics (%s)", c.Index+1, len(chunks), len(seg.Topics), detection.Source)
	}

	// 3. Link
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var links linker.Result
	if len(topics) > 0 {
		done := logger.Timed("link")
		links, err = linker.New(s.embedder,
			linker.WithThreshold(opts.Threshold),
			linker.WithMaxLinks(opts.MaxLinks),
			linker.WithCrossChunk(opts.CrossChunk),
			linker.WithEmbedChars(opts.EmbedChars),
			linker.WithCache(s.cache),
		).Link(ctx, topics)
		done()
		if err != nil {
			return nil, err
		}
		report.AddWarnings(links.Warnings...)
		report.ExcludedTopics = links.Excluded
	}

	// 4. Key concepts
	if opts.KeyConcepts && len(chunks) > 0 {
		concepts, warnings := det.KeyConcepts(ctx, doc.Text)
		report.KeyConcepts = concepts
		report.AddWarnings(warnings...)
	}

	// 5. Export
	if opts.Export {
		report.AddWarnings(s.export(ctx, doc.Source, topics, links.Vectors)...)
	}

	// 6. Assemble
	for _, t := range topics {
		if !t.IsEmpty() {
			report.Topics++
		}
	}
	report.Chunks = len(chunks)
	report.Links = len(links.Links)

	files, err := assembler.New(outputDir, assembler.WithPrune(opts.Prune)).Assemble(ctx, assembler.Input{
		Source: doc.Source,
		Chunks: chunks,
		Topics: topics,
		Links:  links.Links,
		Report: report,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	report.Files = files
	report.Duration = time.Since(report.StartedAt)

	logger.Info("split %s: %d chunks, %d topics, %d links, %d warnings in %s",
		doc.Source, report.Chunks, report.Topics, report.Links, len(report.Warnings),
		report.Duration.Round(time.Millisecond))

	return &driving.SplitResult{
		Chunks: chunks,
		Topics: topics,
		Links:  links.Links,
		Report: report,
	}, nil
}

// export replaces the source's points in the vector store. Failures are
// returned as warnings; the topic files are still written.
func (s *SplitService) export(
	ctx context.Context, source string, topics []domain.Topic, vectors map[string][]float32,
) []domain.Warning {
	if s.vectors == nil {
		w := domain.Warn(domain.ErrVectorStoreUnavailable, domain.StageExport,
			"export requested but no vector store is configured")
		logger.Warn("%s", w)
		return []domain.Warning{w}
	}

	var points []driven.VectorPoint
	for _, t := range topics {
		v, ok := vectors[t.ID]
		if !ok {
			continue
		}
		points = append(points, driven.VectorPoint{
			ID:     PointID(source, t.ID),
			Vector: v,
			Payload: map[string]any{
				"source":      source,
				"topic_id":    t.ID,
				"title":       t.Title,
				"chunk_index": t.ChunkIndex,
				"content":     t.Content,
			},
		})
	}
	if len(points) == 0 {
		w := domain.Warn(domain.ErrEmbeddingUnavailable, domain.StageExport, "no topic vectors to export")
		logger.Warn("%s", w)
		return []domain.Warning{w}
	}

	fail := func(step string, err error) []domain.Warning {
		w := domain.Warn(domain.ErrCollaboratorUnavailable, domain.StageExport, "%s: %v", step, err)
		logger.Warn("%s", w)
		return []domain.Warning{w}
	}
	if err := s.vectors.EnsureCollection(ctx, len(points[0].Vector)); err != nil {
		return fail("ensure collection", err)
	}
	if err := s.vectors.DeleteBySource(ctx, source); err != nil {
		return fail("delete previous points", err)
	}
	if err := s.vectors.Upsert(ctx, points); err != nil {
		return fail("upsert points", err)
	}
	logger.Debug("exported %d topic vectors for %s", len(points), source)
	return nil
}

// PointID is the stable vector-store identifier of a topic.
func PointID(source, topicID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"/"+topicID)).String()
}
