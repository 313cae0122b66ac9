package store

import (
	"context"
	"fmt"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
)

// Repositories bundles every repository the sync subsystem persists
// through, sharing a single database handle.
type Repositories struct {
	Sessions       SessionRepository
	EntityVersions EntityVersionRepository
	Statistics     StatisticsRepository

	db *DB
}

// NewRepositories connects to the configured storage engine, applies
// pending migrations, and wires the repository set.
func NewRepositories(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Repositories, error) {
	var (
		db  *DB
		err error
	)

	switch cfg.DB.Engine {
	case config.EngineSQLite:
		db, err = NewConnectSQLite(ctx, cfg.DB, log)
	default:
		db, err = NewConnectPostgres(ctx, cfg.DB, log)
	}
	if err != nil {
		return nil, fmt.Errorf("error connecting storage: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("error migrating storage: %w", err)
	}

	return &Repositories{
		Sessions:       NewSessionRepository(db, log),
		EntityVersions: NewEntityVersionRepository(db, log),
		Statistics:     NewStatisticsRepository(db, log),
		db:             db,
	}, nil
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
