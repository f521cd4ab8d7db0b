// Package detector proposes topics for a chunk of text.
//
// The primary path asks the language model for structured proposals and
// parses the reply into a tagged ParseResult. A malformed reply earns one
// retry with a stricter prompt. When no model is configured, the model
// fails, or both replies are malformed, proposals come from the chunk's
// H1 and H2 headings, and failing that a single topic named after the
// source file.
package detector

import (
	"context"
	"strconv"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// Source records which path produced a chunk's proposals.
type Source string

// Detection sources.
const (
	SourceModel      Source = "model"
	SourceModelRetry Source = "model_retry"
	SourceHeadings   Source = "headings"
	SourceSingle     Source = "single"
)

// IsFallback reports whether the proposals came from document structure.
func (s Source) IsFallback() bool {
	return s == SourceHeadings || s == SourceSingle
}

// Default generation settings.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.2
	outlineLimit       = 40
)

// Detector proposes topics for chunks.
type Detector struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	maxTokens   int
	temperature float64
}

// Option configures the detector.
type Option func(*Detector)

// WithPromptStore loads templates from a customisable store.
func WithPromptStore(store driven.PromptStore) Option {
	return func(d *Detector) {
		d.prompts = store
	}
}

// WithMaxTokens caps the model's reply length.
func WithMaxTokens(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

// New creates a detector. llm may be nil, in which case every chunk uses
// the structural fallback.
func New(llm driven.LLMService, opts ...Option) *Detector {
	d := &Detector{
		llm:         llm,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetPromptStore implements driven.PromptStoreAware.
func (d *Detector) SetPromptStore(store driven.PromptStore) {
	d.prompts = store
}

// HasModel reports whether a language model is configured.
func (d *Detector) HasModel() bool {
	return d.llm != nil
}

// Request is the input for one chunk.
type Request struct {
	// Text is the chunk text.
	Text string

	// ChunkIndex tags warnings.
	ChunkIndex int

	// FallbackTitle names the single topic used when the chunk has no headings.
	FallbackTitle string

	// MinTopics and MaxTopics bound the request. MaxTopics <= 0 disables the cap.
	MinTopics int
	MaxTopics int
}

// Detection is the outcome for one chunk.
type Detection struct {
	Proposals []domain.TopicProposal
	Source    Source
	Warnings  []domain.Warning
}

// Detect proposes topics for one chunk. It never fails: collaborator
// errors degrade to the fallback path and are reported as warnings.
func (d *Detector) Detect(ctx context.Context, req Request) Detection {
	var det Detection

	if d.llm != nil {
		proposals, source, warnings := d.ask(ctx, req)
		det.Warnings = warnings
		if len(proposals) > 0 {
			det.Proposals = truncate(proposals, req.MaxTopics)
			det.Source = source
			if len(det.Proposals) < req.MinTopics {
				logger.Info("chunk %d: model proposed %d topics, fewer than the minimum %d",
					req.ChunkIndex+1, len(det.Proposals), req.MinTopics)
			}
			return det
		}
	}

	if proposals := HeadingProposals(req.Text); len(proposals) > 0 {
		det.Proposals = truncate(proposals, req.MaxTopics)
		det.Source = SourceHeadings
	} else {
		det.Proposals = []domain.TopicProposal{{Title: req.FallbackTitle, Description: req.FallbackTitle}}
		det.Source = SourceSingle
	}
	logger.Debug("chunk %d: %d topics from %s fallback", req.ChunkIndex+1, len(det.Proposals), det.Source)
	return det
}

// ask runs the model path: one request, and one stricter retry when the
// first reply is malformed.
func (d *Detector) ask(ctx context.Context, req Request) ([]domain.TopicProposal, Source, []domain.Warning) {
	var warnings []domain.Warning
	attempts := []struct {
		prompt string
		source Source
	}{
		{driven.PromptTopicDetection, SourceModel},
		{driven.PromptTopicDetectionStrict, SourceModelRetry},
	}

	for _, attempt := range attempts {
		raw, err := d.llm.Generate(ctx, d.render(attempt.prompt, req), driven.GenerateOptions{
			MaxTokens:   d.maxTokens,
			Temperature: d.temperature,
		})
		if err != nil {
			w := domain.WarnChunk(domain.ErrCollaboratorUnavailable, domain.StageDetect, req.ChunkIndex,
				"topic request to %s failed, using document structure: %v", d.llm.ModelName(), err)
			logger.Warn("%s", w)
			return nil, "", append(warnings, w)
		}

		result := ParseProposals(raw)
		if result.OK() {
			logger.Debug("chunk %d: %d proposals from %s (%s)",
				req.ChunkIndex+1, len(result.Proposals), d.llm.ModelName(), attempt.source)
			return result.Proposals, attempt.source, warnings
		}
		logger.Debug("chunk %d: %s reply malformed: %s", req.ChunkIndex+1, attempt.source, result.Reason)
	}

	w := domain.WarnChunk(domain.ErrMalformedResponse, domain.StageDetect, req.ChunkIndex,
		"model reply could not be parsed after a retry, using document structure")
	logger.Warn("%s", w)
	return nil, "", append(warnings, w)
}

func (d *Detector) render(name string, req Request) string {
	return fill(loadPrompt(d.prompts, name), map[string]string{
		"min_topics": strconv.Itoa(req.MinTopics),
		"max_topics": strconv.Itoa(req.MaxTopics),
		"headings":   outline(req.Text, outlineLimit),
		"text":       req.Text,
	})
}

// truncate keeps the first max proposals in the order returned.
func truncate(proposals []domain.TopicProposal, max int) []domain.TopicProposal {
	if max > 0 && len(proposals) > max {
		return proposals[:max]
	}
	return proposals
}
