package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/models"
)

// entityVersionRepository is the SQL-backed implementation of
// [EntityVersionRepository]: one row per (entity_type, entity_id) pair,
// kept forever — deleted entities stay as tombstones so later writes can
// be flagged as delete conflicts.
type entityVersionRepository struct {
	*DB
	logger *logger.Logger
}

// NewEntityVersionRepository constructs an [EntityVersionRepository]
// backed by the provided database connection and logger.
func NewEntityVersionRepository(db *DB, logger *logger.Logger) EntityVersionRepository {
	return &entityVersionRepository{
		DB:     db,
		logger: logger,
	}
}

// Get returns the ledger row for the entity.
func (r *entityVersionRepository) Get(ctx context.Context, entityType models.EntityType, entityID string) (models.EntityVersion, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.Builder().
		Select(entityVersionColumns...).
		From(tableEntityVersion).
		Where(sq.Eq{"entity_type": string(entityType), "entity_id": entityID}).
		ToSql()
	if err != nil {
		return models.EntityVersion{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	version, err := scanEntityVersion(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.EntityVersion{}, ErrEntityVersionNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "entityVersionRepository.Get").
			Str("entity_type", string(entityType)).
			Str("entity_id", entityID).
			Msg("failed to read entity version")
		return models.EntityVersion{}, err
	}

	return version, nil
}

// Upsert writes the ledger row, inserting or replacing by
// (entity_type, entity_id).
func (r *entityVersionRepository) Upsert(ctx context.Context, version models.EntityVersion) error {
	log := logger.FromContext(ctx)

	query, args, err := r.Builder().
		Insert(tableEntityVersion).
		Columns(entityVersionColumns...).
		Values(
			string(version.EntityType),
			version.EntityID,
			version.Version,
			version.ClientToken,
			version.LastModified,
			version.ModifiedBy,
			version.ContentHash,
			version.Deleted,
			version.DeletedAt,
		).
		Suffix(entityVersionUpsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if postgresErrorCode(err) == pgerrcode.UniqueViolation {
			return ErrDuplicateEntityVersion
		}

		log.Err(err).
			Str("func", "entityVersionRepository.Upsert").
			Str("entity_type", string(version.EntityType)).
			Str("entity_id", version.EntityID).
			Int64("version", version.Version).
			Msg("failed to upsert entity version")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// ListStates returns the ledger rows last modified by the given user,
// optionally narrowed to entity types and an exclusive since cursor.
// This is the backing query for incremental pulls.
func (r *entityVersionRepository) ListStates(ctx context.Context, userID int64, entityTypes []models.EntityType, since *time.Time) ([]models.EntityVersion, error) {
	log := logger.FromContext(ctx)

	builder := r.Builder().
		Select(entityVersionColumns...).
		From(tableEntityVersion).
		Where(sq.Eq{"modified_by": userID}).
		OrderBy("last_modified ASC")

	if len(entityTypes) > 0 {
		names := make([]string, 0, len(entityTypes))
		for _, t := range entityTypes {
			names = append(names, string(t))
		}
		builder = builder.Where(sq.Eq{"entity_type": names})
	}
	if since != nil {
		builder = builder.Where(sq.Gt{"last_modified": *since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "entityVersionRepository.ListStates").
			Int64("user_id", userID).
			Msg("failed to execute state list query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	states := make([]models.EntityVersion, 0, 50)

	for rows.Next() {
		version, scanErr := scanEntityVersion(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "entityVersionRepository.ListStates").
				Int64("user_id", userID).
				Msg("failed to scan entity version row")
			return nil, scanErr
		}
		states = append(states, version)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "entityVersionRepository.ListStates").
			Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return states, nil
}

func scanEntityVersion(row rowScanner) (models.EntityVersion, error) {
	var (
		version    models.EntityVersion
		entityType string
		deletedAt  sql.NullTime
	)

	err := row.Scan(
		&entityType,
		&version.EntityID,
		&version.Version,
		&version.ClientToken,
		&version.LastModified,
		&version.ModifiedBy,
		&version.ContentHash,
		&version.Deleted,
		&deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EntityVersion{}, err
	}
	if err != nil {
		return models.EntityVersion{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	version.EntityType = models.EntityType(entityType)
	if deletedAt.Valid {
		t := deletedAt.Time
		version.DeletedAt = &t
	}

	return version, nil
}
