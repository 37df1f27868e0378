// Package migrations embeds the SQL migration files so they ship inside the
// binary and are applied at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
