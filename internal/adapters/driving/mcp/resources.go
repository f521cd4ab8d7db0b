package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for topicnet resources.
	uriScheme = "topicnet://"
)

// registerResources exposes run history as JSON resources.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Documents split since the server started",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}",
		Name:        "run-report",
		Description: "Full report of one split run",
		MIMEType:    "application/json",
	}, s.handleRunResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}/index",
		Name:        "run-index",
		Description: "Master index written by one split run",
		MIMEType:    "text/markdown",
	}, s.handleIndexResource)
}

// handleRunsResource lists this session's runs, newest last.
func (s *Server) handleRunsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type runInfo struct {
		RunID     string `json:"run_id"`
		Source    string `json:"source"`
		OutputDir string `json:"output_dir"`
		Topics    int    `json:"topics"`
		Degraded  bool   `json:"degraded"`
	}

	runs := s.history()
	infos := make([]runInfo, len(runs))
	for i := range runs {
		infos[i] = runInfo{
			RunID:     runs[i].RunID,
			Source:    runs[i].Source,
			OutputDir: runs[i].OutputDir,
			Topics:    runs[i].Topics,
			Degraded:  runs[i].Degraded(),
		}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleRunResource returns the report for one run.
func (s *Server) handleRunResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, sub := extractRunID(req.Params.URI)
	if id == "" || sub != "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	report, ok := s.run(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResult(req.Params.URI, reportOutput(report))
}

// handleIndexResource returns the master index file of one run.
func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, sub := extractRunID(req.Params.URI)
	if id == "" || sub != "index" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	report, ok := s.run(id)
	if !ok || len(report.Files) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// The index is always written last.
	content, err := os.ReadFile(report.Files[len(report.Files)-1])
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     string(content),
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRunID splits a URI like topicnet://runs/{runId}[/suffix].
func extractRunID(uri string) (id, suffix string) {
	const prefix = uriScheme + "runs/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}
	rest := strings.TrimPrefix(uri, prefix)
	id, suffix, _ = strings.Cut(rest, "/")
	return id, suffix
}
