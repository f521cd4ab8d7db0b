// Package ai turns provider settings into guarded LLM and embedding services.
package ai

import (
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/topicnet/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/topicnet/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/topicnet/internal/adapters/driven/embedding/tfidf"
	anthropicllm "github.com/custodia-labs/topicnet/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/topicnet/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/topicnet/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/logger"
)

const settingsHint = "Run 'topicnet settings' to review the configuration"

// InitResult contains the services a run can use. Either may be nil.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Warnings         []string // Non-fatal issues that disabled a service.
}

// Close releases whichever services were created.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise creates, validates and guards both collaborators.
// A failing collaborator is left nil with a warning, so the engine
// falls back instead of aborting.
func Initialise(settings *domain.AppSettings) *InitResult {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("%v", err)
	case embedder != nil:
		result.EmbeddingService = guardEmbedder(embedder, settings.Embedding.RequestsPerSecond)
		logger.Debug("embedding: %s (%s)", settings.Embedding.Provider, embedder.ModelName())
	}

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("%v", err)
	case llm != nil:
		result.LLMService = NewGuardedLLM(llm, settings.LLM.RequestsPerSecond)
		logger.Debug("llm: %s (%s)", settings.LLM.Provider, llm.ModelName())
	}

	return result
}

// guardEmbedder wraps remote embedders. Local fitters stay unwrapped so the
// linker can still fit them to a corpus.
func guardEmbedder(svc driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if _, ok := svc.(driven.CorpusFitter); ok {
		return svc
	}
	return NewGuardedEmbedder(svc, requestsPerSecond)
}

// CreateAndValidateEmbeddingService returns a service that answered a ping,
// or nil when nothing is configured. Errors wrap ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	svc, err := CreateEmbeddingService(settings)
	if err == nil {
		err = closeOnFailedPing(svc)
	}
	if err != nil {
		return nil, unavailable(domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService is the LLM counterpart; errors wrap ErrLLMUnavailable.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	svc, err := CreateLLMService(settings)
	if err == nil {
		err = closeOnFailedPing(svc)
	}
	if err != nil {
		return nil, unavailable(domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

func closeOnFailedPing(svc service) error {
	if err := pingUnguarded(svc); err != nil {
		svc.Close()
		return fmt.Errorf("service unreachable (%w)", err)
	}
	return nil
}

func unavailable(kind, err error) error {
	return fmt.Errorf("%w: %w. %s", kind, err, settingsHint)
}

// CreateEmbeddingService creates the embedding service named by settings.
// Callers must check IsConfigured first; unconfigured settings are an error.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderTFIDF:
		return tfidf.New(), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: seconds(settings.TimeoutSeconds),
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: seconds(settings.TimeoutSeconds),
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use tfidf, ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: seconds(settings.TimeoutSeconds),
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: seconds(settings.TimeoutSeconds),
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: seconds(settings.TimeoutSeconds),
		})

	case domain.AIProviderTFIDF:
		return nil, fmt.Errorf("tfidf is an embedding provider, use ollama, openai or anthropic")

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", settings.Provider)
	}
}

// seconds converts a configured timeout. Zero leaves the adapter default.
func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
