// Package migrations embeds the SQL files that create and seed the shared
// reference tables in the public schema. Per-project schemas are not managed
// here; they are provisioned and kept in sync by internal/tenant.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
