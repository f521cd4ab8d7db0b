package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
)

// mockSplitService is a mock implementation of driving.SplitService.
type mockSplitService struct {
	report    domain.RunReport
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
	report := m.report
	report.OutputDir = outputDir
	return &driving.SplitResult{Report: report}, nil
}

func (m *mockSplitService) SplitDocument(
	_ context.Context, _ domain.Document, _ string, _ driving.SplitOptions,
) (*driving.SplitResult, error) {
	return nil, m.err
}

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	matches []driving.TopicMatch
	err     error
	k       int
}

func (m *mockSearchService) Query(_ context.Context, _ string, k int) ([]driving.TopicMatch, error) {
	m.k = k
	return m.matches, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return m.err }
func (m *mockSettingsService) Set(_, _ string) error            { return m.err }
func (m *mockSettingsService) Keys() []string                   { return nil }
func (m *mockSettingsService) Validate() error                  { return m.err }
func (m *mockSettingsService) ValidateEmbeddingConfig() error   { return m.err }
func (m *mockSettingsService) ValidateLLMConfig() error         { return m.err }

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func sampleReport() domain.RunReport {
	return domain.RunReport{
		RunID:  "run-1",
		Source: "q3.md",
		Words:  1200,
		Chunks: 1,
		Topics: 3,
		Links:  2,
		Warnings: []domain.Warning{
			domain.Warn(domain.ErrCollaboratorUnavailable, domain.StageLink, "embedding failed"),
		},
		Duration: 1500 * time.Millisecond,
	}
}
