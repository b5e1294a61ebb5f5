// Package migrations embeds the goose SQL migrations so a deployed binary
// can migrate its own database at startup.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
