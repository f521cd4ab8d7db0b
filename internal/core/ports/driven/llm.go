package driven

import "context"

// LLMService completes prompts. The detector uses it to propose topics and
// extract key concepts.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string

	// Ping makes the cheapest request the provider allows.
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions tunes one completion. Zero values keep provider defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}
