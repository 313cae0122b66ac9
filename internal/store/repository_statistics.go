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

// statisticsRepository is the SQL-backed implementation of
// [StatisticsRepository]: one row per user, entity totals serialized as a
// JSON map, the average duration stored in nanoseconds.
type statisticsRepository struct {
	*DB
	logger *logger.Logger
}

// NewStatisticsRepository constructs a [StatisticsRepository] backed by
// the provided database connection and logger.
func NewStatisticsRepository(db *DB, logger *logger.Logger) StatisticsRepository {
	return &statisticsRepository{
		DB:     db,
		logger: logger,
	}
}

// Get returns the user's statistics record.
func (r *statisticsRepository) Get(ctx context.Context, userID int64) (*models.SyncStatistics, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.Builder().
		Select(statisticsColumns...).
		From(tableStatistics).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		stats          models.SyncStatistics
		entitiesSynced string
		lastSyncTime   sql.NullTime
		avgDurationNS  int64
	)

	err = r.DB.QueryRowContext(ctx, query, args...).Scan(
		&stats.UserID,
		&stats.TotalSessions,
		&stats.SuccessfulSessions,
		&stats.FailedSessions,
		&entitiesSynced,
		&stats.BytesTransferred,
		&lastSyncTime,
		&avgDurationNS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatisticsNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "statisticsRepository.Get").
			Int64("user_id", userID).
			Msg("failed to read statistics")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	stats.EntitiesSynced = make(map[models.EntityType]int64)
	if entitiesSynced != "" {
		if err := json.Unmarshal([]byte(entitiesSynced), &stats.EntitiesSynced); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeserializingRecord, err)
		}
	}
	if lastSyncTime.Valid {
		t := lastSyncTime.Time
		stats.LastSyncTime = &t
	}
	stats.AverageDuration = time.Duration(avgDurationNS)

	return &stats, nil
}

// Upsert writes the user's statistics record.
func (r *statisticsRepository) Upsert(ctx context.Context, stats *models.SyncStatistics) error {
	log := logger.FromContext(ctx)

	entitiesSynced, err := json.Marshal(stats.EntitiesSynced)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializingRecord, err)
	}

	query, args, err := r.Builder().
		Insert(tableStatistics).
		Columns(statisticsColumns...).
		Values(
			stats.UserID,
			stats.TotalSessions,
			stats.SuccessfulSessions,
			stats.FailedSessions,
			string(entitiesSynced),
			stats.BytesTransferred,
			stats.LastSyncTime,
			int64(stats.AverageDuration),
		).
		Suffix(statisticsUpsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "statisticsRepository.Upsert").
			Int64("user_id", stats.UserID).
			Msg("failed to upsert statistics")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}
