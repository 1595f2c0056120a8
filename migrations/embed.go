// Package migrations embeds the goose SQL migrations for module pattern stores.
package migrations

import "embed"

// FS holds the migration files applied to every module database.
//
//go:embed *.sql
var FS embed.FS
