// Package migrations embeds the SQL migration files applied by goose.
package migrations

import "embed"

// FS holds the migration files shipped with the binary.
//
//go:embed *.sql
var FS embed.FS
