package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
)

type mockSplitService struct {
	result    *driving.SplitResult
	err       error
	path      string
	outputDir string
	opts      driving.SplitOptions
}

func (m *mockSplitService) SplitFile(
	_ context.Context, path, outputDir string, opts driving.SplitOptions,
) (*driving.SplitResult, error) {
	m.path, m.outputDir, m.opts = path, outputDir, opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &driving.SplitResult{Report: domain.RunReport{Source: path, OutputDir: outputDir}}, nil
}

func (m *mockSplitService) SplitDocument(
	_ context.Context, _ domain.Document, _ string, _ driving.SplitOptions,
) (*driving.SplitResult, error) {
	return nil, m.err
}

type mockSearchService struct {
	matches []driving.TopicMatch
	err     error
	text    string
	k       int
}

func (m *mockSearchService) Query(_ context.Context, text string, k int) ([]driving.TopicMatch, error) {
	m.text, m.k = text, k
	return m.matches, m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	err         error
	validateErr error
	pingErr     error
	set         map[string]string

	embeddingProvider domain.AIProvider
	llmProvider       domain.AIProvider
	model             string
	apiKey            string
}

func newMockSettings() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return m.err }

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"link.threshold", "split.max_topics"}
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embeddingProvider, m.model, m.apiKey = p, model, apiKey
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llmProvider, m.model, m.apiKey = p, model, apiKey
	return m.err
}

func (m *mockSettingsService) Validate() error                { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.pingErr }

type mockPromptManager struct {
	customised map[string]bool
	reset      []string
	err        error
}

func (m *mockPromptManager) Names() []string {
	return []string{"key_concepts", "topic_detection"}
}

func (m *mockPromptManager) Path(name string) string {
	return "/prompts/" + name + ".txt"
}

func (m *mockPromptManager) Customised(name string) bool {
	return m.customised[name]
}

func (m *mockPromptManager) Reset(name string) error {
	if m.err != nil {
		return m.err
	}
	m.reset = append(m.reset, name)
	return nil
}

type mockCacheManager struct {
	vectors int
	err     error
	cleared bool
	closed  bool
}

func (m *mockCacheManager) Path() string { return "/cache/embeddings.db" }

func (m *mockCacheManager) Len(_ context.Context) (int, error) {
	return m.vectors, m.err
}

func (m *mockCacheManager) Clear(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.cleared, m.vectors = true, 0
	return nil
}

func (m *mockCacheManager) Close() error {
	m.closed = true
	return nil
}

func sampleReport() domain.RunReport {
	return domain.RunReport{
		RunID:              "run-1",
		Source:             "q3.md",
		OutputDir:          "out/q3",
		Words:              120000,
		Chunks:             3,
		Topics:             12,
		Links:              9,
		DegradedBoundaries: 1,
		KeyConcepts:        []string{"revenue", "churn"},
		Files:              []string{"out/q3/revenue.md", "out/q3/q3_index.md"},
		Warnings: []domain.Warning{
			domain.WarnChunk(domain.ErrCollaboratorUnavailable, domain.StageDetect, 1, "llm timed out, used headings"),
		},
		Duration: 1234 * time.Millisecond,
	}
}

// setupTestServices swaps in mocks and returns them with a restore func.
func setupTestServices(t *testing.T) (*mockSplitService, *mockSearchService, *mockSettingsService, *mockPromptManager) {
	t.Helper()
	oldSplit, oldSearch, oldSettings := splitService, searchService, settingsService
	oldPrompts, oldCache, oldRegistry := promptManager, cacheOpener, converterRegistry

	split := &mockSplitService{}
	search := &mockSearchService{}
	settings := newMockSettings()
	prompts := &mockPromptManager{customised: map[string]bool{}}
	Configure(Services{Split: split, Search: search, Settings: settings, Prompts: prompts})

	t.Cleanup(func() {
		splitService, searchService, settingsService = oldSplit, oldSearch, oldSettings
		promptManager, cacheOpener, converterRegistry = oldPrompts, oldCache, oldRegistry
	})
	return split, search, settings, prompts
}

// execute runs the root command with args and returns combined output.
// Flag values are reset first since cobra keeps them between runs.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
