package store

import (
	"context"
	"time"

	"github.com/ndelyukov/go-note-sync/models"
)

// SessionRepository persists sync sessions and their operation-log
// children.
type SessionRepository interface {
	// SaveSession upserts the full durable form of a session.
	SaveSession(ctx context.Context, session *models.SyncSession) error

	// GetSession returns the durable record for the given id, or
	// [ErrSessionNotFound].
	GetSession(ctx context.Context, sessionID string) (*models.SyncSession, error)

	// ListRecoverable returns sessions in pending/running status whose
	// updated_at falls at or after the cutoff, for the startup recovery
	// sweep.
	ListRecoverable(ctx context.Context, cutoff time.Time) ([]models.SyncSession, error)

	// ListUserHistory returns one page of the user's terminal sessions,
	// newest first, together with the total count of matching rows.
	ListUserHistory(ctx context.Context, userID int64, page, limit int) ([]models.SyncSession, int64, error)

	// DeleteTerminalBefore removes terminal sessions completed before the
	// cutoff and their operation-log children. A non-nil userID narrows
	// the purge to one user. Returns the number of sessions removed.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time, userID *int64) (int64, error)

	// FailStaleBefore force-fails non-terminal sessions whose updated_at
	// is older than the cutoff, assigning the given error message.
	// Returns the number of sessions failed.
	FailStaleBefore(ctx context.Context, cutoff time.Time, errorMessage string) (int64, error)

	// SaveOperationRecord appends one record to the durable operation log.
	SaveOperationRecord(ctx context.Context, sessionID string, userID int64, record models.SyncOperationRecord) error

	// UpdateOperationRecord sets the status, error, and completion time of
	// an operation-log row, or returns [ErrOperationRecordNotFound].
	UpdateOperationRecord(ctx context.Context, recordID string, status models.OperationRecordStatus, errMessage string, completedAt *time.Time) error
}

// EntityVersionRepository persists the version ledger.
type EntityVersionRepository interface {
	// Get returns the ledger row for the entity, or
	// [ErrEntityVersionNotFound].
	Get(ctx context.Context, entityType models.EntityType, entityID string) (models.EntityVersion, error)

	// Upsert writes the ledger row, inserting or replacing by
	// (entity_type, entity_id).
	Upsert(ctx context.Context, version models.EntityVersion) error

	// ListStates returns the ledger rows last modified by the given user,
	// optionally narrowed to entity types and an exclusive since cursor.
	ListStates(ctx context.Context, userID int64, entityTypes []models.EntityType, since *time.Time) ([]models.EntityVersion, error)
}

// StatisticsRepository persists per-user cumulative sync statistics.
type StatisticsRepository interface {
	// Get returns the user's statistics record, or
	// [ErrStatisticsNotFound].
	Get(ctx context.Context, userID int64) (*models.SyncStatistics, error)

	// Upsert writes the user's statistics record.
	Upsert(ctx context.Context, stats *models.SyncStatistics) error
}
