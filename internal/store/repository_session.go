package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/models"
)

// sessionRepository is the SQL-backed implementation of
// [SessionRepository]. Sessions live in the "sync_sessions" table with
// their operation and conflict lists serialized as versioned JSON blobs;
// the operation log additionally gets one row per record in
// "sync_operations" so that cleanup and audits can address records
// without decoding session blobs.
type sessionRepository struct {
	*DB
	logger *logger.Logger
}

// NewSessionRepository constructs a [SessionRepository] backed by the
// provided database connection and logger.
func NewSessionRepository(db *DB, logger *logger.Logger) SessionRepository {
	return &sessionRepository{
		DB:     db,
		logger: logger,
	}
}

// versionedList is the serialization envelope for the operation and
// conflict lists embedded in a session row. SchemaVersion guards decoding
// of rows persisted by older builds.
type versionedList[T any] struct {
	SchemaVersion int `json:"schema_version"`
	Items         []T `json:"items"`
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(versionedList[T]{
		SchemaVersion: models.SessionListSchemaVersion,
		Items:         items,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerializingRecord, err)
	}
	return string(raw), nil
}

func unmarshalList[T any](raw string) ([]T, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}

	var list versionedList[T]
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeserializingRecord, err)
	}
	if list.SchemaVersion > models.SessionListSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrDeserializingRecord, list.SchemaVersion)
	}
	return list.Items, nil
}

// SaveSession upserts the full durable form of a session.
func (r *sessionRepository) SaveSession(ctx context.Context, session *models.SyncSession) error {
	log := logger.FromContext(ctx)

	operations, err := marshalList(session.Operations)
	if err != nil {
		return err
	}
	conflicts, err := marshalList(session.Conflicts)
	if err != nil {
		return err
	}
	counters, err := json.Marshal(session.Counters)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializingRecord, err)
	}

	query, args, err := r.Builder().
		Insert(tableSessions).
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.UserID,
			session.DeviceID,
			string(session.Status),
			string(session.Phase),
			session.Progress.Total,
			session.Progress.Completed,
			session.Progress.Failed,
			session.Progress.Percentage,
			session.CurrentOperation,
			session.ErrorMessage,
			session.StartedAt,
			session.UpdatedAt,
			session.CompletedAt,
			operations,
			conflicts,
			string(counters),
		).
		Suffix(sessionUpsertSuffix).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository.SaveSession").
			Str("session_id", session.ID).
			Msg("failed to build upsert query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sessionRepository.SaveSession").
			Str("session_id", session.ID).
			Int64("user_id", session.UserID).
			Msg("failed to upsert session")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// GetSession returns the durable record for the given id.
func (r *sessionRepository) GetSession(ctx context.Context, sessionID string) (*models.SyncSession, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.Builder().
		Select(sessionColumns...).
		From(tableSessions).
		Where(sq.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	session, err := r.scanSession(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository.GetSession").
			Str("session_id", sessionID).
			Msg("failed to read session")
		return nil, err
	}

	return session, nil
}

// ListRecoverable returns pending/running sessions updated at or after the
// cutoff, oldest first.
func (r *sessionRepository) ListRecoverable(ctx context.Context, cutoff time.Time) ([]models.SyncSession, error) {
	query, args, err := r.Builder().
		Select(sessionColumns...).
		From(tableSessions).
		Where(sq.Eq{"status": []string{
			string(models.SessionPending),
			string(models.SessionRunning),
		}}).
		Where(sq.GtOrEq{"updated_at": cutoff}).
		OrderBy("updated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.querySessions(ctx, "ListRecoverable", query, args)
}

// ListUserHistory returns one page of the user's terminal sessions, newest
// first, plus the total matching count.
func (r *sessionRepository) ListUserHistory(ctx context.Context, userID int64, page, limit int) ([]models.SyncSession, int64, error) {
	log := logger.FromContext(ctx)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	terminal := sq.Eq{"status": []string{
		string(models.SessionCompleted),
		string(models.SessionFailed),
	}}

	countQuery, countArgs, err := r.Builder().
		Select("COUNT(*)").
		From(tableSessions).
		Where(sq.Eq{"user_id": userID}).
		Where(terminal).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		log.Err(err).
			Str("func", "sessionRepository.ListUserHistory").
			Int64("user_id", userID).
			Msg("failed to count history rows")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	query, args, err := r.Builder().
		Select(sessionColumns...).
		From(tableSessions).
		Where(sq.Eq{"user_id": userID}).
		Where(terminal).
		OrderBy("completed_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	sessions, err := r.querySessions(ctx, "ListUserHistory", query, args)
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

// DeleteTerminalBefore removes terminal sessions completed before the
// cutoff together with their operation-log children.
func (r *sessionRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time, userID *int64) (int64, error) {
	log := logger.FromContext(ctx)

	terminal := sq.Eq{"status": []string{
		string(models.SessionCompleted),
		string(models.SessionFailed),
	}}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository.DeleteTerminalBefore").
			Msg("failed to begin transaction")
		return 0, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	// Operation rows first so the parent filter can still see the
	// sessions about to go away.
	idSelect := r.Builder().
		Select("id").
		From(tableSessions).
		Where(terminal).
		Where(sq.Lt{"completed_at": cutoff})
	if userID != nil {
		idSelect = idSelect.Where(sq.Eq{"user_id": *userID})
	}
	idQuery, idArgs, err := idSelect.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	opsQuery := fmt.Sprintf("DELETE FROM %s WHERE session_id IN (%s)", tableOperations, idQuery)
	if _, err := tx.ExecContext(ctx, opsQuery, idArgs...); err != nil {
		log.Err(err).
			Str("func", "sessionRepository.DeleteTerminalBefore").
			Msg("failed to delete operation-log children")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	del := r.Builder().
		Delete(tableSessions).
		Where(terminal).
		Where(sq.Lt{"completed_at": cutoff})
	if userID != nil {
		del = del.Where(sq.Eq{"user_id": *userID})
	}
	query, args, err := del.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository.DeleteTerminalBefore").
			Msg("failed to delete terminal sessions")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "sessionRepository.DeleteTerminalBefore").
			Msg("failed to commit transaction")
		return 0, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	if removed > 0 {
		log.Info().
			Str("func", "sessionRepository.DeleteTerminalBefore").
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("purged terminal sessions past retention")
	}

	return removed, nil
}

// FailStaleBefore force-fails non-terminal sessions last touched before
// the cutoff.
func (r *sessionRepository) FailStaleBefore(ctx context.Context, cutoff time.Time, errorMessage string) (int64, error) {
	log := logger.FromContext(ctx)

	now := time.Now()
	query, args, err := r.Builder().
		Update(tableSessions).
		Set("status", string(models.SessionFailed)).
		Set("error_message", errorMessage).
		Set("updated_at", now).
		Set("completed_at", now).
		Where(sq.Eq{"status": []string{
			string(models.SessionPending),
			string(models.SessionRunning),
			string(models.SessionPaused),
		}}).
		Where(sq.Lt{"updated_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository.FailStaleBefore").
			Msg("failed to fail stale sessions")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	failed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return failed, nil
}

// SaveOperationRecord appends one record to the durable operation log.
func (r *sessionRepository) SaveOperationRecord(ctx context.Context, sessionID string, userID int64, record models.SyncOperationRecord) error {
	log := logger.FromContext(ctx)

	query, args, err := r.Builder().
		Insert(tableOperations).
		Columns(operationColumns...).
		Values(
			record.ID,
			sessionID,
			userID,
			string(record.Type),
			string(record.EntityType),
			record.EntityID,
			string(record.Status),
			record.Error,
			record.CreatedAt,
			record.CompletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sessionRepository.SaveOperationRecord").
			Str("session_id", sessionID).
			Str("record_id", record.ID).
			Msg("failed to insert operation record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// UpdateOperationRecord sets the status, error, and completion time of an
// operation-log row.
func (r *sessionRepository) UpdateOperationRecord(ctx context.Context, recordID string, status models.OperationRecordStatus, errMessage string, completedAt *time.Time) error {
	log := logger.FromContext(ctx)

	query, args, err := r.Builder().
		Update(tableOperations).
		Set("status", string(status)).
		Set("error", errMessage).
		Set("completed_at", completedAt).
		Where(sq.Eq{"id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository.UpdateOperationRecord").
			Str("record_id", recordID).
			Msg("failed to update operation record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		log.Warn().
			Str("func", "sessionRepository.UpdateOperationRecord").
			Str("record_id", recordID).
			Msg("operation record not found")
		return ErrOperationRecordNotFound
	}

	return nil
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *sessionRepository) scanSession(row rowScanner) (*models.SyncSession, error) {
	var (
		session       models.SyncSession
		status, phase string
		operations    string
		conflicts     string
		counters      string
		completedAt   sql.NullTime
	)

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.DeviceID,
		&status,
		&phase,
		&session.Progress.Total,
		&session.Progress.Completed,
		&session.Progress.Failed,
		&session.Progress.Percentage,
		&session.CurrentOperation,
		&session.ErrorMessage,
		&session.StartedAt,
		&session.UpdatedAt,
		&completedAt,
		&operations,
		&conflicts,
		&counters,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	session.Status = models.SessionStatus(status)
	session.Phase = models.SyncPhase(phase)
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}

	if session.Operations, err = unmarshalList[models.SyncOperationRecord](operations); err != nil {
		return nil, err
	}
	if session.Conflicts, err = unmarshalList[models.Conflict](conflicts); err != nil {
		return nil, err
	}

	session.Counters = models.EntityCounters{}
	if counters != "" {
		if err := json.Unmarshal([]byte(counters), &session.Counters); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeserializingRecord, err)
		}
	}

	return &session, nil
}

func (r *sessionRepository) querySessions(ctx context.Context, caller, query string, args []any) ([]models.SyncSession, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sessionRepository."+caller).
			Msg("failed to execute session list query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	sessions := make([]models.SyncSession, 0, 20)

	for rows.Next() {
		session, scanErr := r.scanSession(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "sessionRepository."+caller).
				Msg("failed to scan session row")
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "sessionRepository."+caller).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return sessions, nil
}
