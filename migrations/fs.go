// Package migrations embeds the SQL migration files applied on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
