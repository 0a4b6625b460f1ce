// Package assets embeds the files shipped with the binaries: SQL migrations and email templates.
package assets

import "embed"

// FS holds `migrations/*.sql` and `templates/email/*`.
//go:embed migrations/*.sql templates/email/*
var FS embed.FS

// MigrationsDir is the directory of FS holding the goose migrations.
const MigrationsDir = "migrations"
