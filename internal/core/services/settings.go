package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMTimeout      = "llm.timeout_seconds"
	keyLLMRate         = "llm.requests_per_second"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedTimeout    = "embedding.timeout_seconds"
	keyEmbedRate       = "embedding.requests_per_second"
	keyMaxChunkWords   = "split.max_chunk_words"
	keyTolerance       = "split.boundary_tolerance"
	keyMinTopics       = "split.min_topics"
	keyMaxTopics       = "split.max_topics"
	keyKeyConcepts     = "split.key_concepts"
	keyThreshold       = "link.threshold"
	keyMaxLinks        = "link.max_links"
	keyCrossChunk      = "link.cross_chunk"
	keyEmbedChars      = "link.embed_chars"
	keyPrune           = "output.prune"
	keyVectorURL       = "vectorstore.url"
	keyVectorAPIKey    = "vectorstore.api_key"
	keyVectorCollectn  = "vectorstore.collection"
	keyCachePath       = "cache.path"
	envPrefix          = "TOPICNET_"
	envOpenAIAPIKey    = "OPENAI_API_KEY"
	envAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindProvider
)

var settingKinds = map[string]valueKind{
	keyLLMProvider:    kindProvider,
	keyLLMModel:       kindString,
	keyLLMBaseURL:     kindString,
	keyLLMAPIKey:      kindString,
	keyLLMTimeout:     kindInt,
	keyLLMRate:        kindFloat,
	keyEmbedProvider:  kindProvider,
	keyEmbedModel:     kindString,
	keyEmbedBaseURL:   kindString,
	keyEmbedAPIKey:    kindString,
	keyEmbedTimeout:   kindInt,
	keyEmbedRate:      kindFloat,
	keyMaxChunkWords:  kindInt,
	keyTolerance:      kindFloat,
	keyMinTopics:      kindInt,
	keyMaxTopics:      kindInt,
	keyKeyConcepts:    kindBool,
	keyThreshold:      kindFloat,
	keyMaxLinks:       kindInt,
	keyCrossChunk:     kindBool,
	keyEmbedChars:     kindInt,
	keyPrune:          kindBool,
	keyVectorURL:      kindString,
	keyVectorAPIKey:   kindString,
	keyVectorCollectn: kindString,
	keyCachePath:      kindString,
}

// SettingsService manages application settings.
// Values come from the config store, overridden by TOPICNET_* environment
// variables; provider API keys also fall back to OPENAI_API_KEY and
// ANTHROPIC_API_KEY.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// aiValidator is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings with environment overrides.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	return s.load(s.getenv), nil
}

// load reads settings from the store with values from getenv taking
// precedence. A nil getenv reads the store alone, which is what saving
// starts from so overrides are never persisted.
func (s *SettingsService) load(getenv func(string) string) *domain.AppSettings {
	r := reader{store: s.configStore, getenv: getenv}
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:          r.provider(keyLLMProvider, d.LLM.Provider),
			Model:             r.str(keyLLMModel, d.LLM.Model),
			BaseURL:           r.str(keyLLMBaseURL, ""),
			APIKey:            r.str(keyLLMAPIKey, ""),
			TimeoutSeconds:    r.int(keyLLMTimeout, d.LLM.TimeoutSeconds),
			RequestsPerSecond: r.float(keyLLMRate, d.LLM.RequestsPerSecond),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          r.provider(keyEmbedProvider, d.Embedding.Provider),
			Model:             r.str(keyEmbedModel, d.Embedding.Model),
			BaseURL:           r.str(keyEmbedBaseURL, ""),
			APIKey:            r.str(keyEmbedAPIKey, ""),
			TimeoutSeconds:    r.int(keyEmbedTimeout, d.Embedding.TimeoutSeconds),
			RequestsPerSecond: r.float(keyEmbedRate, d.Embedding.RequestsPerSecond),
		},
		Split: domain.SplitSettings{
			MaxChunkWords:     r.int(keyMaxChunkWords, d.Split.MaxChunkWords),
			BoundaryTolerance: r.float(keyTolerance, d.Split.BoundaryTolerance),
			MinTopics:         r.int(keyMinTopics, d.Split.MinTopics),
			MaxTopics:         r.int(keyMaxTopics, d.Split.MaxTopics),
			KeyConcepts:       r.bool(keyKeyConcepts, d.Split.KeyConcepts),
		},
		Link: domain.LinkSettings{
			Threshold:  r.float(keyThreshold, d.Link.Threshold),
			MaxLinks:   r.int(keyMaxLinks, d.Link.MaxLinks),
			CrossChunk: r.bool(keyCrossChunk, d.Link.CrossChunk),
			EmbedChars: r.int(keyEmbedChars, d.Link.EmbedChars),
		},
		Output: domain.OutputSettings{
			Prune: r.bool(keyPrune, d.Output.Prune),
		},
		VectorStore: domain.VectorStoreSettings{
			URL:        r.str(keyVectorURL, d.VectorStore.URL),
			APIKey:     r.str(keyVectorAPIKey, ""),
			Collection: r.str(keyVectorCollectn, d.VectorStore.Collection),
		},
		Cache: domain.CacheSettings{
			Path: r.str(keyCachePath, d.Cache.Path),
		},
	}

	if getenv != nil {
		settings.LLM.APIKey = providerKey(getenv, settings.LLM.Provider, settings.LLM.APIKey)
		settings.Embedding.APIKey = providerKey(getenv, settings.Embedding.Provider, settings.Embedding.APIKey)
	}
	return settings
}

func providerKey(getenv func(string) string, provider domain.AIProvider, current string) string {
	if current != "" {
		return current
	}
	switch provider {
	case domain.AIProviderOpenAI:
		return getenv(envOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return getenv(envAnthropicAPIKey)
	default:
		return ""
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTimeout, settings.LLM.TimeoutSeconds},
		{keyLLMRate, settings.LLM.RequestsPerSecond},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedTimeout, settings.Embedding.TimeoutSeconds},
		{keyEmbedRate, settings.Embedding.RequestsPerSecond},
		{keyMaxChunkWords, settings.Split.MaxChunkWords},
		{keyTolerance, settings.Split.BoundaryTolerance},
		{keyMinTopics, settings.Split.MinTopics},
		{keyMaxTopics, settings.Split.MaxTopics},
		{keyKeyConcepts, settings.Split.KeyConcepts},
		{keyThreshold, settings.Link.Threshold},
		{keyMaxLinks, settings.Link.MaxLinks},
		{keyCrossChunk, settings.Link.CrossChunk},
		{keyEmbedChars, settings.Link.EmbedChars},
		{keyPrune, settings.Output.Prune},
		{keyVectorURL, settings.VectorStore.URL},
		{keyVectorCollectn, settings.VectorStore.Collection},
		{keyCachePath, settings.Cache.Path},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when set so an empty form never wipes them.
	secrets := map[string]string{
		keyLLMAPIKey:    settings.LLM.APIKey,
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyVectorAPIKey: settings.VectorStore.APIKey,
	}
	for key, val := range secrets {
		if val == "" {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Set updates one setting by its dotted key. The value is only stored when
// the resulting configuration still validates.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	parsed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	candidate := s.load(func(name string) string {
		if name == EnvName(key) {
			return value
		}
		return ""
	})
	if err := candidate.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists every recognised setting key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.load(nil)
	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	default:
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider == domain.AIProviderTFIDF {
		return fmt.Errorf("provider %s does not support text generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.load(nil)
	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the engine settings and that any chosen provider has
// the credentials it needs.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if p := settings.LLM.Provider; p != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: llm provider %s is not usable (missing API key or unsupported)",
			domain.ErrInvalidConfiguration, p)
	}
	if p := settings.Embedding.Provider; p != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not usable (missing API key or unsupported)",
			domain.ErrInvalidConfiguration, p)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// EnvName returns the environment variable that overrides a setting key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// reader resolves one key from the environment, then the store, then the default.
type reader struct {
	store  driven.ConfigStore
	getenv func(string) string
}

func (r reader) env(key string) (string, bool) {
	if r.getenv == nil {
		return "", false
	}
	v := r.getenv(EnvName(key))
	return v, v != ""
}

func (r reader) str(key, defaultVal string) string {
	if v, ok := r.env(key); ok {
		return v
	}
	if v := r.store.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (r reader) int(key string, defaultVal int) int {
	if v, ok := r.env(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if _, exists := r.store.Get(key); !exists {
		return defaultVal
	}
	return r.store.GetInt(key)
}

func (r reader) float(key string, defaultVal float64) float64 {
	if v, ok := r.env(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if _, exists := r.store.Get(key); !exists {
		return defaultVal
	}
	return r.store.GetFloat(key)
}

func (r reader) bool(key string, defaultVal bool) bool {
	if v, ok := r.env(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if _, exists := r.store.Get(key); !exists {
		return defaultVal
	}
	return r.store.GetBool(key)
}

func (r reader) provider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := r.str(key, "")
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	case kindProvider:
		if p := domain.AIProvider(value); value != "" && !p.IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return value, nil
	default:
		return value, nil
	}
}
