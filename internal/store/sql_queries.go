package store

// Table and column sets shared by the repositories. All statements are
// built through the engine-aware squirrel builder on [DB] so the same
// code serves both placeholder formats; upserts rely on the
// INSERT ... ON CONFLICT ... DO UPDATE SET col = excluded.col form, which
// PostgreSQL and SQLite both accept.
const (
	tableSessions      = "sync_sessions"
	tableOperations    = "sync_operations"
	tableEntityVersion = "entity_versions"
	tableStatistics    = "sync_statistics"
)

var sessionColumns = []string{
	"id",
	"user_id",
	"device_id",
	"status",
	"phase",
	"progress_total",
	"progress_completed",
	"progress_failed",
	"progress_percentage",
	"current_operation",
	"error_message",
	"started_at",
	"updated_at",
	"completed_at",
	"operations",
	"conflicts",
	"counters",
}

const sessionUpsertSuffix = `ON CONFLICT (id) DO UPDATE SET
		status = excluded.status,
		phase = excluded.phase,
		progress_total = excluded.progress_total,
		progress_completed = excluded.progress_completed,
		progress_failed = excluded.progress_failed,
		progress_percentage = excluded.progress_percentage,
		current_operation = excluded.current_operation,
		error_message = excluded.error_message,
		updated_at = excluded.updated_at,
		completed_at = excluded.completed_at,
		operations = excluded.operations,
		conflicts = excluded.conflicts,
		counters = excluded.counters`

var operationColumns = []string{
	"id",
	"session_id",
	"user_id",
	"type",
	"entity_type",
	"entity_id",
	"status",
	"error",
	"created_at",
	"completed_at",
}

var entityVersionColumns = []string{
	"entity_type",
	"entity_id",
	"version",
	"client_token",
	"last_modified",
	"modified_by",
	"content_hash",
	"deleted",
	"deleted_at",
}

const entityVersionUpsertSuffix = `ON CONFLICT (entity_type, entity_id) DO UPDATE SET
		version = excluded.version,
		client_token = excluded.client_token,
		last_modified = excluded.last_modified,
		modified_by = excluded.modified_by,
		content_hash = excluded.content_hash,
		deleted = excluded.deleted,
		deleted_at = excluded.deleted_at`

var statisticsColumns = []string{
	"user_id",
	"total_sessions",
	"successful_sessions",
	"failed_sessions",
	"entities_synced",
	"bytes_transferred",
	"last_sync_time",
	"average_duration_ns",
}

const statisticsUpsertSuffix = `ON CONFLICT (user_id) DO UPDATE SET
		total_sessions = excluded.total_sessions,
		successful_sessions = excluded.successful_sessions,
		failed_sessions = excluded.failed_sessions,
		entities_synced = excluded.entities_synced,
		bytes_transferred = excluded.bytes_transferred,
		last_sync_time = excluded.last_sync_time,
		average_duration_ns = excluded.average_duration_ns`
