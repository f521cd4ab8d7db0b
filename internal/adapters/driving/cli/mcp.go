package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicnet/internal/adapters/driving/mcp"
	"github.com/custodia-labs/topicnet/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can split
documents and query exported topics.

By default, the server communicates over stdio using JSON-RPC. Use --http to
serve the streamable HTTP transport instead, for example to test with the
MCP Inspector.

Examples:
  # Stdio mode (default)
  topicnet mcp

  # HTTP mode
  topicnet mcp --http :8080

Client configuration:
  {
    "mcpServers": {
      "topicnet": {
        "command": "/path/to/topicnet",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

var mcpHTTPAddr string

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve HTTP on this address instead of stdio (e.g. :8080)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if err := ensureEngine(cmd.Context(), true); err != nil {
		return err
	}
	if splitService == nil {
		return errors.New("split service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Split:    splitService,
		Search:   searchService,
		Settings: settingsService,
	})
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", displayAddr(mcpHTTPAddr))
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	// Stdio carries the protocol; keep warnings out of the client's way
	// unless --verbose asked for them.
	logger.SetQuiet(true)
	defer logger.SetQuiet(false)
	return server.Run(cmd.Context())
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
