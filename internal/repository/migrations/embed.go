// Package migrations embeds the schema, written in the subset of SQL shared by
// SQLite and PostgreSQL.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
