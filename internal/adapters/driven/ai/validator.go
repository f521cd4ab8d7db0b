package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

const pingTimeout = 5 * time.Second

var _ driven.AIConfigValidator = ConfigValidator{}

// ConfigValidator pings providers before the settings command saves them.
type ConfigValidator struct{}

func NewConfigValidator() ConfigValidator { return ConfigValidator{} }

func (ConfigValidator) ValidateEmbedding(s *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(s)
}

func (ConfigValidator) ValidateLLM(s *domain.LLMSettings) error {
	return ValidateLLMConfig(s)
}

// ValidateEmbeddingConfig pings a throwaway embedding service. Settings
// that are not configured pass.
func ValidateEmbeddingConfig(s *domain.EmbeddingSettings) error {
	if s == nil || !s.IsConfigured() {
		return nil
	}
	return checkOnce(func() (service, error) { return CreateEmbeddingService(s) })
}

// ValidateLLMConfig pings a throwaway LLM service.
func ValidateLLMConfig(s *domain.LLMSettings) error {
	if s == nil || !s.IsConfigured() {
		return nil
	}
	return checkOnce(func() (service, error) { return CreateLLMService(s) })
}

type service interface {
	Ping(ctx context.Context) error
	Close() error
}

func checkOnce(create func() (service, error)) error {
	svc, err := create()
	if err != nil {
		return err
	}
	defer svc.Close()
	return pingUnguarded(svc)
}

// pingUnguarded pings without the guard so startup checks never trip the breaker.
func pingUnguarded(svc interface{ Ping(context.Context) error }) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
