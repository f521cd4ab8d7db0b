package driving

import "github.com/custodia-labs/topicnet/internal/core/domain"

// SettingsService reads and edits the persisted configuration.
type SettingsService interface {
	// Get loads the settings and applies environment overrides on top.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error

	// Set parses value for a dotted key such as "split.max_topics" and saves it.
	Set(key, value string) error
	Keys() []string

	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate reports settings the engine cannot start without.
	Validate() error
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig and ValidateEmbeddingConfig ping the configured provider.
	ValidateLLMConfig() error
	ValidateEmbeddingConfig() error
}
