// Package migrations holds the goose SQL migrations of the document store.
package migrations

import "embed"

// FS contains the *.sql migration files at its root.
//
//go:embed *.sql
var FS embed.FS
