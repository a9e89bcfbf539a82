package database

import "errors"

var (
	// ErrNotFound is returned when no event has the requested id.
	ErrNotFound = errors.New("event not found")

	// ErrUnsupportedScheme is returned for a database URL that names neither
	// SQLite nor PostgreSQL.
	ErrUnsupportedScheme = errors.New("unsupported database scheme")
)
