package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider names a backend for generation, embeddings or both.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderTFIDF is the built-in embedder. It needs no network.
	AIProviderTFIDF AIProvider = "tfidf"
)

type providerInfo struct {
	description string
	cloud       bool
	llm         bool
	embeddings  bool
}

// providers is listed in menu order.
var providers = []struct {
	id AIProvider
	providerInfo
}{
	{AIProviderTFIDF, providerInfo{description: "TF-IDF (offline)", embeddings: true}},
	{AIProviderOllama, providerInfo{description: "Ollama (local)", llm: true, embeddings: true}},
	{AIProviderOpenAI, providerInfo{description: "OpenAI (cloud)", cloud: true, llm: true, embeddings: true}},
	{AIProviderAnthropic, providerInfo{description: "Anthropic (cloud)", cloud: true, llm: true}},
}

func (p AIProvider) info() (providerInfo, bool) {
	for _, e := range providers {
		if e.id == p {
			return e.providerInfo, true
		}
	}
	return providerInfo{}, false
}

func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

// RequiresAPIKey is true for the cloud providers.
func (p AIProvider) RequiresAPIKey() bool {
	i, _ := p.info()
	return i.cloud
}

func (p AIProvider) IsLocal() bool {
	i, ok := p.info()
	return ok && !i.cloud
}

func (p AIProvider) String() string { return string(p) }

// Description is the label shown in the settings menus.
func (p AIProvider) Description() string {
	if i, ok := p.info(); ok {
		return i.description
	}
	return unknownDescription
}

func (p AIProvider) supportsLLM() bool {
	i, _ := p.info()
	return i.llm
}

func (p AIProvider) supportsEmbeddings() bool {
	i, _ := p.info()
	return i.embeddings
}

func providersWhere(keep func(providerInfo) bool) []AIProvider {
	var out []AIProvider
	for _, e := range providers {
		if keep(e.providerInfo) {
			out = append(out, e.id)
		}
	}
	return out
}

// EmbeddingSettings selects the embedder used for linking and export.
// BaseURL overrides the provider endpoint; APIKey is needed for cloud providers.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// TimeoutSeconds bounds each embedding call. Zero uses the adapter default.
	TimeoutSeconds int

	// RequestsPerSecond caps outbound calls. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured is false for providers without embeddings and for a cloud
// provider with no key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.supportsEmbeddings() && (!e.Provider.RequiresAPIKey() || e.APIKey != "")
}

// LLMSettings selects the model that proposes topics.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// TimeoutSeconds bounds each generation call. Zero uses the adapter default.
	TimeoutSeconds int

	// RequestsPerSecond caps outbound calls. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured mirrors EmbeddingSettings.IsConfigured for generation.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.supportsLLM() && (!l.Provider.RequiresAPIKey() || l.APIKey != "")
}

// SplitSettings controls chunking and topic detection.
type SplitSettings struct {
	// MaxChunkWords is the hard word budget per chunk.
	MaxChunkWords int

	// BoundaryTolerance is the fraction of MaxChunkWords below the limit
	// searched for a natural cut point.
	BoundaryTolerance float64

	// MinTopics is the number of topics requested at minimum per chunk.
	MinTopics int

	// MaxTopics caps the topics kept per chunk.
	MaxTopics int

	// KeyConcepts enables document-wide concept extraction.
	KeyConcepts bool
}

// LinkSettings controls the similarity graph.
type LinkSettings struct {
	// Threshold is the similarity a pair must exceed to be linked.
	Threshold float64

	// MaxLinks keeps the top-N links per topic. Zero keeps all.
	MaxLinks int

	// CrossChunk links topics from different chunks.
	CrossChunk bool

	// EmbedChars limits the runes of content embedded per topic. Zero embeds all.
	EmbedChars int
}

// OutputSettings controls file emission.
type OutputSettings struct {
	// Prune removes files from the previous run that were not rewritten.
	Prune bool
}

// VectorStoreSettings configures the optional Qdrant export.
type VectorStoreSettings struct {
	// URL is the Qdrant REST endpoint.
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection topics are exported to.
	Collection string
}

// IsConfigured returns true if export can run.
func (v VectorStoreSettings) IsConfigured() bool {
	return v.URL != "" && v.Collection != ""
}

// CacheSettings configures the optional embedding cache.
type CacheSettings struct {
	// Path is the sqlite database file. Empty disables the persistent cache.
	Path string
}

// AppSettings is everything the config file and environment can set.
type AppSettings struct {
	LLM         LLMSettings
	Embedding   EmbeddingSettings
	Split       SplitSettings
	Link        LinkSettings
	Output      OutputSettings
	VectorStore VectorStoreSettings
	Cache       CacheSettings
}

// DefaultAppSettings leaves the LLM unconfigured, so detection falls back to
// headings until a provider is set. Embeddings default to TF-IDF.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{},
		Embedding: EmbeddingSettings{
			Provider: AIProviderTFIDF,
		},
		Split: SplitSettings{
			MaxChunkWords:     50000,
			BoundaryTolerance: 0.1,
			MinTopics:         3,
			MaxTopics:         8,
		},
		Link: LinkSettings{
			Threshold:  0.3,
			MaxLinks:   5,
			EmbedChars: 1000,
		},
		VectorStore: VectorStoreSettings{
			Collection: "topics",
		},
	}
}

// Validate checks the settings the engine cannot run without.
// Every failure wraps ErrInvalidConfiguration.
func (s AppSettings) Validate() error {
	switch {
	case s.Split.MaxChunkWords <= 0:
		return fmt.Errorf("%w: max chunk words must be positive, got %d", ErrInvalidConfiguration, s.Split.MaxChunkWords)
	case s.Split.BoundaryTolerance < 0 || s.Split.BoundaryTolerance >= 1:
		return fmt.Errorf("%w: boundary tolerance must be in [0,1), got %g", ErrInvalidConfiguration, s.Split.BoundaryTolerance)
	case s.Split.MinTopics < 1:
		return fmt.Errorf("%w: min topics must be at least 1, got %d", ErrInvalidConfiguration, s.Split.MinTopics)
	case s.Split.MaxTopics < s.Split.MinTopics:
		return fmt.Errorf("%w: max topics (%d) is below min topics (%d)",
			ErrInvalidConfiguration, s.Split.MaxTopics, s.Split.MinTopics)
	case s.Link.Threshold < 0 || s.Link.Threshold > 1:
		return fmt.Errorf("%w: link threshold must be in [0,1], got %g", ErrInvalidConfiguration, s.Link.Threshold)
	case s.Link.MaxLinks < 0:
		return fmt.Errorf("%w: max links must not be negative, got %d", ErrInvalidConfiguration, s.Link.MaxLinks)
	case s.Link.EmbedChars < 0:
		return fmt.Errorf("%w: embed chars must not be negative, got %d", ErrInvalidConfiguration, s.Link.EmbedChars)
	}
	return nil
}

// AllEmbeddingProviders lists providers that can embed, in menu order.
func AllEmbeddingProviders() []AIProvider {
	return providersWhere(func(i providerInfo) bool { return i.embeddings })
}

func AllLLMProviders() []AIProvider {
	return providersWhere(func(i providerInfo) bool { return i.llm })
}

// DefaultEmbeddingModels is used when a provider is picked without a model.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderTFIDF:  "tfidf",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions maps known model names to their vector size.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
