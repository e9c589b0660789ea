// Package migrations embeds the SQL schema migrations for each supported
// database dialect.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per dialect.
//
//go:embed mysql/*.sql sqlite/*.sql
var FS embed.FS
