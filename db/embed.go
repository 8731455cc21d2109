// Package db embeds the storefront's SQL schema and catalog seed data.
package db

import _ "embed"

// Schema holds the database schema DDL applied on startup.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog holds the storefront catalog seed in JSON form.
//
//go:embed seed/catalog.json
var Catalog []byte
