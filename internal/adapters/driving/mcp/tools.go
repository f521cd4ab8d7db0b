package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
)

// SplitInput is the input schema for the split_document tool.
type SplitInput struct {
	Path          string   `json:"path" jsonschema:"path of the document to split"`
	OutputDir     string   `json:"output_dir,omitempty" jsonschema:"directory for topic files (default: <document dir>/<document stem>)"`
	MaxChunkWords int      `json:"max_chunk_words,omitempty" jsonschema:"word budget per chunk"`
	MinTopics     int      `json:"min_topics,omitempty" jsonschema:"topics requested per chunk at minimum"`
	MaxTopics     int      `json:"max_topics,omitempty" jsonschema:"topics kept per chunk at most"`
	Threshold     *float64 `json:"threshold,omitempty" jsonschema:"similarity a pair must exceed to be linked (0-1)"`
	MaxLinks      *int     `json:"max_links,omitempty" jsonschema:"links kept per topic (0 keeps all)"`
	CrossChunk    *bool    `json:"cross_chunk,omitempty" jsonschema:"link topics from different chunks"`
	Prune         *bool    `json:"prune,omitempty" jsonschema:"remove files left by the previous run"`
	Export        bool     `json:"export,omitempty" jsonschema:"upsert topic vectors to the vector store"`
}

// ReportOutput summarises one split run.
type ReportOutput struct {
	RunID       string   `json:"run_id"`
	Source      string   `json:"source"`
	OutputDir   string   `json:"output_dir"`
	Words       int      `json:"words"`
	Chunks      int      `json:"chunks"`
	Topics      int      `json:"topics"`
	Links       int      `json:"links"`
	Degraded    bool     `json:"degraded"`
	KeyConcepts []string `json:"key_concepts,omitempty"`
	Files       []string `json:"files"`
	Warnings    []string `json:"warnings,omitempty"`
	DurationMS  int64    `json:"duration_ms"`
}

// SearchInput is the input schema for the search_topics tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find related topics for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search_topics tool.
type SearchOutput struct {
	Results []TopicOutput `json:"results"`
	Count   int           `json:"count"`
}

// TopicOutput is a single search hit.
type TopicOutput struct {
	Source     string  `json:"source"`
	TopicID    string  `json:"topic_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Excerpt    string  `json:"excerpt,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "split_document",
		Description: "Split a document into topic files linked by semantic similarity, with a master index",
	}, s.handleSplit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_topics",
		Description: "Find exported topics related to a query",
	}, s.handleSearch)
}

// handleSplit handles the split_document tool invocation.
func (s *Server) handleSplit(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SplitInput,
) (*mcp.CallToolResult, ReportOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, ReportOutput{}, errors.New("path is required")
	}
	outputDir := input.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(path), domain.SourceStem(path))
	}

	opts := applyOverrides(s.ports.options(), input)
	result, err := s.ports.Split.SplitFile(ctx, path, outputDir, opts)
	if err != nil {
		return nil, ReportOutput{}, err
	}

	s.record(result.Report)
	return nil, reportOutput(result.Report), nil
}

func applyOverrides(opts driving.SplitOptions, in SplitInput) driving.SplitOptions {
	if in.MaxChunkWords > 0 {
		opts.MaxChunkWords = in.MaxChunkWords
	}
	if in.MinTopics > 0 {
		opts.MinTopics = in.MinTopics
	}
	if in.MaxTopics > 0 {
		opts.MaxTopics = in.MaxTopics
	}
	if in.Threshold != nil {
		opts.Threshold = *in.Threshold
	}
	if in.MaxLinks != nil {
		opts.MaxLinks = *in.MaxLinks
	}
	if in.CrossChunk != nil {
		opts.CrossChunk = *in.CrossChunk
	}
	if in.Prune != nil {
		opts.Prune = *in.Prune
	}
	opts.Export = in.Export
	return opts
}

func reportOutput(r domain.RunReport) ReportOutput {
	out := ReportOutput{
		RunID:       r.RunID,
		Source:      r.Source,
		OutputDir:   r.OutputDir,
		Words:       r.Words,
		Chunks:      r.Chunks,
		Topics:      r.Topics,
		Links:       r.Links,
		Degraded:    r.Degraded(),
		KeyConcepts: r.KeyConcepts,
		Files:       r.Files,
		DurationMS:  r.Duration.Milliseconds(),
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

// handleSearch handles the search_topics tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if s.ports.Search == nil {
		return nil, SearchOutput{}, domain.ErrVectorStoreUnavailable
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	matches, err := s.ports.Search.Query(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]TopicOutput, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		output.Results[i] = TopicOutput{
			Source:     m.Source,
			TopicID:    m.TopicID,
			Title:      m.Title,
			ChunkIndex: m.ChunkIndex,
			Score:      m.Score,
			Excerpt:    m.Excerpt,
		}
	}
	return nil, output, nil
}
