package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

const (
	defaultQueryLimit = 10
	excerptRunes      = 200
)

// SearchService queries topics exported to the vector store.
type SearchService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
}

// NewSearchService creates a new search service.
// Both parameters are optional; Query reports which one is missing.
func NewSearchService(embedder driven.EmbeddingService, vectors driven.VectorStore) *SearchService {
	return &SearchService{embedder: embedder, vectors: vectors}
}

// Query embeds text and returns the k nearest exported topics.
func (s *SearchService) Query(ctx context.Context, text string, k int) ([]driving.TopicMatch, error) {
	logger.Section("Topic Query")

	text = strings.TrimSpace(text)
	if text == "" {
		return []driving.TopicMatch{}, nil
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if _, ok := s.embedder.(driven.CorpusFitter); ok {
		// Fitted vectors only share a space with the corpus they came from.
		return nil, fmt.Errorf("%w: %s vectors cannot be queried outside a split run",
			domain.ErrEmbeddingUnavailable, s.embedder.ModelName())
	}
	if k <= 0 {
		k = defaultQueryLimit
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrCollaboratorUnavailable, err)
	}
	logger.Debug("query embedded with %s (%d dims)", s.embedder.ModelName(), len(vector))

	hits, err := s.vectors.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}

	matches := make([]driving.TopicMatch, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, driving.TopicMatch{
			Source:     payloadString(h.Payload, "source"),
			TopicID:    payloadString(h.Payload, "topic_id"),
			Title:      payloadString(h.Payload, "title"),
			ChunkIndex: payloadInt(h.Payload, "chunk_index"),
			Score:      h.Score,
			Excerpt:    excerpt(payloadString(h.Payload, "content"), excerptRunes),
		})
	}
	logger.Debug("query returned %d matches", len(matches))
	return matches, nil
}

func payloadString(p map[string]any, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// payloadInt accepts the int written on export and the float64 a JSON
// round trip turns it into.
func payloadInt(p map[string]any, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
