// Package migrations holds the goose SQL migrations for the postgres store.
package migrations

import "embed"

// FS contains every migration file, so binaries don't depend on the working directory
//
//go:embed *.sql
var FS embed.FS
