// Package db embeds the PostgreSQL schema of the POS key-value store.
package db

import _ "embed"

// Schema creates the kv_entries table.
//
//go:embed migrations/001_schema.sql
var Schema string
