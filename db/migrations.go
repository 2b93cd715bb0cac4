// Package db embeds the goose migrations of the trade archive.
package db

import "embed"

// Migrations holds db/migrations/*.sql; pass it to goose.SetBaseFS and migrate "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS
