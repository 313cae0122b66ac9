package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known
// failure conditions. Callers should use [errors.Is] to match against
// these values.
var (
	// ErrSessionNotFound is returned when a query or update targets a sync
	// session id that does not exist in the database.
	ErrSessionNotFound = errors.New("sync session was not found")

	// ErrOperationRecordNotFound is returned when an operation-log update
	// targets a record id that does not exist.
	ErrOperationRecordNotFound = errors.New("operation record was not found")

	// ErrEntityVersionNotFound is returned when the ledger has no row for
	// the requested (entity_type, entity_id) pair.
	ErrEntityVersionNotFound = errors.New("entity version was not found")

	// ErrStatisticsNotFound is returned when a user has no statistics
	// record yet. Callers typically respond by lazily creating a zeroed
	// record.
	ErrStatisticsNotFound = errors.New("sync statistics were not found")

	// ErrDuplicateEntityVersion is returned when inserting a ledger row
	// violates the (entity_type, entity_id) uniqueness constraint,
	// meaning another writer created the entity concurrently.
	ErrDuplicateEntityVersion = errors.New("entity version already exists")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised
	// SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a query against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back at
	// this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a
	// single result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrSerializingRecord is returned when marshaling a session's
	// embedded operation or conflict list fails.
	ErrSerializingRecord = errors.New("failed to serialize record")

	// ErrDeserializingRecord is returned when a persisted session's
	// embedded list cannot be decoded, e.g. after a schema change without
	// a matching schema version bump.
	ErrDeserializingRecord = errors.New("failed to deserialize record")
)
