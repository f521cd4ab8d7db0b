package services

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// --- Mock implementations ---

// outlineHeading matches H2 entries in the detection prompt's heading outline.
var outlineHeading = regexp.MustCompile(`(?m)^  - (.+)$`)

// mockLLM proposes the first few H2 headings of each chunk as topics.
type mockLLM struct {
	mu      sync.Mutex
	limit   int
	err     error
	reply   string
	prompts int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts++
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.reply != "" {
		return m.reply, nil
	}

	var items []string
	for _, match := range outlineHeading.FindAllStringSubmatch(prompt, -1) {
		if m.limit > 0 && len(items) == m.limit {
			break
		}
		title := match[1]
		items = append(items, `{"title": "`+title+`", "description": "About `+strings.ToLower(title)+
			`", "related_headers": ["`+title+`"]}`)
	}
	return "[" + strings.Join(items, ",") + "]", nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// headingEmbedder derives a vector from the first H2 heading in the text.
type headingEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	err     error
}

var firstHeading = regexp.MustCompile(`(?m)^## (.+)$`)

func (e *headingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	m := firstHeading.FindStringSubmatch(text)
	if m == nil {
		return []float32{1}, nil
	}
	return e.vectors[m[1]], nil
}

func (e *headingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *headingEmbedder) Dimensions() int              { return 16 }
func (e *headingEmbedder) ModelName() string            { return "mock-embed" }
func (e *headingEmbedder) Ping(_ context.Context) error { return nil }
func (e *headingEmbedder) Close() error                 { return nil }

// mockVectorStore records exports.
type mockVectorStore struct {
	dims      int
	deleted   []string
	points    []driven.VectorPoint
	upsertErr error
	matches   []driven.VectorMatch
	queried   []float32
}

func (m *mockVectorStore) EnsureCollection(_ context.Context, dims int) error {
	m.dims = dims
	return nil
}

func (m *mockVectorStore) Upsert(_ context.Context, points []driven.VectorPoint) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.points = append(m.points, points...)
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, vector []float32, k int) ([]driven.VectorMatch, error) {
	m.queried = vector
	if k < len(m.matches) {
		return m.matches[:k], nil
	}
	return m.matches, nil
}

func (m *mockVectorStore) DeleteBySource(_ context.Context, source string) error {
	m.deleted = append(m.deleted, source)
	return nil
}

func (m *mockVectorStore) Close() error { return nil }

// mockConverter returns fixed text for one extension.
type mockConverter struct {
	text string
	err  error
}

func (c *mockConverter) Name() string                  { return "mock" }
func (c *mockConverter) SupportedExtensions() []string { return []string{".md"} }
func (c *mockConverter) Convert(_ context.Context, _ string) (string, error) {
	return c.text, c.err
}

// mockRegistry resolves every .md path to one converter.
type mockRegistry struct {
	conv driven.Converter
}

func (r *mockRegistry) Register(c driven.Converter) { r.conv = c }
func (r *mockRegistry) Extensions() []string        { return []string{".md"} }
func (r *mockRegistry) ForPath(path string) (driven.Converter, error) {
	if filepath.Ext(path) != ".md" || r.conv == nil {
		return nil, domain.ErrUnsupportedFormat
	}
	return r.conv, nil
}

// revenueVectors maps heading names to vectors: the two revenue sections
// score 0.82 against each other and everything else is orthogonal.
func revenueVectors(names []string) map[string][]float32 {
	vectors := make(map[string][]float32, len(names))
	for i, name := range names {
		v := make([]float32, 16)
		switch i {
		case 0:
			v[0] = 1
		case 1:
			v[0] = 0.82
			v[1] = float32(math.Sqrt(1 - 0.82*0.82))
		default:
			v[i] = 1
		}
		vectors[name] = v
	}
	return vectors
}

var errBoom = errors.New("boom")

type countingPromptStore struct {
	reloads int
}

func (p *countingPromptStore) Load(string) (string, error) {
	return "", errors.New("prompt not found")
}

func (p *countingPromptStore) Reload() { p.reloads++ }
