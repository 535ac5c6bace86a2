// Package migrations embeds the SQL migration files for the recipe schema.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
