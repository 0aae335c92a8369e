package database

import "errors"

var (
	// ErrEmptyPath is returned by Open when no database path is configured.
	ErrEmptyPath = errors.New("database: path is empty")

	// ErrMissingDownSQL is returned by MigrateDown when the latest migration
	// has no .down.sql counterpart.
	ErrMissingDownSQL = errors.New("database: migration has no down SQL")
)
