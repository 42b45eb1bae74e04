// Package migrations contains embedded SQL migrations for the contest store.
package migrations

import "embed"

//go:embed contests/*.sql
var FS embed.FS

// Root is the directory inside FS that holds the migration files.
const Root = "contests"
