// Package mcp provides an MCP (Model Context Protocol) server adapter for topicnet.
// It lets AI assistants split documents into linked topic files and query
// exported topics.
package mcp

import "errors"

// ErrMissingSplitService is returned when the split service is not provided.
var ErrMissingSplitService = errors.New("mcp: split service is required")
