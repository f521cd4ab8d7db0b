// Package migrations holds the embedding cache schema as numbered
// NNN_name.up.sql / .down.sql pairs.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
