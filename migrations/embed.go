// Package migrations embeds the schema for the SQL key-value backends.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
