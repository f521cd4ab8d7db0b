// Package driving declares the operations the CLI, the MCP server and the
// watcher call. internal/core/services implements them.
package driving
