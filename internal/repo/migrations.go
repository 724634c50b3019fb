package repo

import "embed"

// Migrations holds the goose SQL files for the postgres store.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations passed to goose.
const MigrationsDir = "migrations"
