// Package migrations embeds the schema migrations for the vector store.
package migrations

import "embed"

// FS holds the migration SQL, applied in filename order at open time.
//
//go:embed *.sql
var FS embed.FS
