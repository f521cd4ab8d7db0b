package driven

import "github.com/custodia-labs/topicnet/internal/core/domain"

// AIConfigValidator checks that provider settings reach a working service.
type AIConfigValidator interface {
	// ValidateEmbedding creates the embedding service and pings it.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM creates the LLM service and pings it.
	ValidateLLM(config *domain.LLMSettings) error
}
