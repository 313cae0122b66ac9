package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/migrations"
)

// DB wraps the shared *sql.DB handle together with the engine name and a
// squirrel statement builder configured with the engine's placeholder
// format (dollar for Postgres, question mark for SQLite).
type DB struct {
	*sql.DB

	engine  string
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// Builder returns the statement builder pre-configured for the engine's
// placeholder format.
func (db *DB) Builder() sq.StatementBuilderType {
	return db.builder
}

// Migrate applies all pending goose migrations for the connected engine.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.engine)
}
