// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/models"
)

// StatsAggregator maintains cumulative per-user sync statistics. It owns
// its own lock and is never called while a session lock is held by the
// same goroutine path that could call back into the manager, so
// statistics updates cannot block session-state updates.
type StatsAggregator struct {
	mu         sync.Mutex
	statistics store.StatisticsRepository // nil when persistence is disabled
	cache      map[int64]*models.SyncStatistics
	logger     *logger.Logger
}

// NewStatsAggregator constructs a [StatsAggregator]. statistics may be
// nil to run memory-only.
func NewStatsAggregator(statistics store.StatisticsRepository, log *logger.Logger) *StatsAggregator {
	return &StatsAggregator{
		statistics: statistics,
		cache:      make(map[int64]*models.SyncStatistics),
		logger:     log,
	}
}

// RecordSession folds one terminal session into the user's totals. A
// successful session contributes its entity counters, refreshes the last
// sync time, and moves the duration average; a failed one only moves the
// total and failed counts.
func (a *StatsAggregator) RecordSession(ctx context.Context, session *models.SyncSession) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats, err := a.loadLocked(ctx, session.UserID)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "StatsAggregator.RecordSession").
			Int64("user_id", session.UserID).
			Msg("failed to load statistics, starting from zero")
		stats = models.NewSyncStatistics(session.UserID)
		a.cache[session.UserID] = stats
	}

	stats.TotalSessions++

	switch session.Status {
	case models.SessionCompleted:
		stats.SuccessfulSessions++

		for entityType, set := range session.Counters {
			stats.EntitiesSynced[entityType] += int64(set.Created + set.Updated + set.Deleted)
		}

		completedAt := time.Now()
		if session.CompletedAt != nil {
			completedAt = *session.CompletedAt
		}
		stats.LastSyncTime = &completedAt

		duration := completedAt.Sub(session.StartedAt)
		prevCount := stats.SuccessfulSessions - 1
		stats.AverageDuration = (stats.AverageDuration*time.Duration(prevCount) + duration) / time.Duration(stats.SuccessfulSessions)

	case models.SessionFailed:
		stats.FailedSessions++
	}

	a.persistLocked(ctx, stats)
}

// Get returns the user's statistics, lazily creating a zeroed record for
// a user that has never synced.
func (a *StatsAggregator) Get(ctx context.Context, userID int64) (*models.SyncStatistics, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats, err := a.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return copyStatistics(stats), nil
}

func (a *StatsAggregator) loadLocked(ctx context.Context, userID int64) (*models.SyncStatistics, error) {
	if stats, ok := a.cache[userID]; ok {
		return stats, nil
	}

	if a.statistics != nil {
		stats, err := a.statistics.Get(ctx, userID)
		if err == nil {
			a.cache[userID] = stats
			return stats, nil
		}
		if !errors.Is(err, store.ErrStatisticsNotFound) {
			return nil, err
		}
	}

	stats := models.NewSyncStatistics(userID)
	a.cache[userID] = stats
	return stats, nil
}

func (a *StatsAggregator) persistLocked(ctx context.Context, stats *models.SyncStatistics) {
	if a.statistics == nil {
		return
	}

	if err := a.statistics.Upsert(ctx, stats); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "StatsAggregator.persistLocked").
			Int64("user_id", stats.UserID).
			Msg("durable statistics write failed, in-memory totals stay authoritative")
	}
}

func copyStatistics(stats *models.SyncStatistics) *models.SyncStatistics {
	out := *stats

	out.EntitiesSynced = make(map[models.EntityType]int64, len(stats.EntitiesSynced))
	for entityType, count := range stats.EntitiesSynced {
		out.EntitiesSynced[entityType] = count
	}
	if stats.LastSyncTime != nil {
		t := *stats.LastSyncTime
		out.LastSyncTime = &t
	}

	return &out
}
