// Package ollama generates completions with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/topicnet/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Defaults applied by NewLLMService.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 300 * time.Second
)

// LLMConfig configures the Ollama LLM. Zero fields take the defaults above.
type LLMConfig struct {
	BaseURL string
	Model   string

	// Timeout is generous: local models are slow on chunks near the word budget.
	Timeout time.Duration

	// ContextWindow sets num_ctx. Zero keeps the model's default, which
	// may be smaller than a full chunk.
	ContextWindow int
}

// LLMService calls /api/generate without streaming.
type LLMService struct {
	api    *httpjson.Client
	model  string
	numCtx int
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	NumCtx      int      `json:"num_ctx,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// NewLLMService creates the service. It does not contact the server.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:    httpjson.New("ollama", cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
		numCtx: cfg.ContextWindow,
	}
}

// Generate implements driven.LLMService.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Options: generateOptions{
			NumPredict:  opts.MaxTokens,
			NumCtx:      s.numCtx,
			Temperature: opts.Temperature,
			Stop:        opts.StopWords,
		},
	}
	var resp generateResponse
	if err := s.api.Post(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", resp.Error)
	}
	return resp.Response, nil
}

// ModelName implements driven.LLMService.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models, which needs no inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return ping(ctx, s.api)
}

// Close implements driven.LLMService.
func (s *LLMService) Close() error {
	return nil
}

func ping(ctx context.Context, api *httpjson.Client) error {
	if err := api.Get(ctx, "/api/tags", nil); err != nil {
		return fmt.Errorf("ollama: ping %s: %w", api.BaseURL(), err)
	}
	return nil
}
