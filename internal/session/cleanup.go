// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package session

import (
	"context"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/store"
)

// CleanupWorker is the retention scheduler. On a fixed interval it purges
// terminal sessions past the retention window together with their
// operation-log children, and force-fails non-terminal sessions that sat
// untouched longer than the recovery window (the ones the recovery sweep
// deliberately skipped).
type CleanupWorker struct {
	sessions      store.SessionRepository
	retentionDays int
	staleAfter    time.Duration
	interval      time.Duration
	logger        *logger.Logger
}

// NewCleanupWorker constructs a [CleanupWorker] from the sync tunables.
func NewCleanupWorker(sessions store.SessionRepository, cfg config.Sync, log *logger.Logger) *CleanupWorker {
	return &CleanupWorker{
		sessions:      sessions,
		retentionDays: cfg.HistoryRetentionDays,
		staleAfter:    cfg.RecoveryTimeout,
		interval:      cfg.CleanupInterval,
		logger:        log,
	}
}

// Run ticks until the context is cancelled.
func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().
		Str("func", "CleanupWorker.Run").
		Dur("interval", w.interval).
		Int("retention_days", w.retentionDays).
		Msg("retention scheduler started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().
				Str("func", "CleanupWorker.Run").
				Msg("retention scheduler stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one retention pass. Errors are logged, not returned:
// the next tick retries.
func (w *CleanupWorker) RunOnce(ctx context.Context) {
	log := logger.FromContext(ctx)
	now := time.Now()

	failed, err := w.sessions.FailStaleBefore(ctx, now.Add(-w.staleAfter), InterruptionMessage)
	if err != nil {
		log.Err(err).
			Str("func", "CleanupWorker.RunOnce").
			Msg("failed to fail stale sessions")
	} else if failed > 0 {
		log.Info().
			Str("func", "CleanupWorker.RunOnce").
			Int64("failed", failed).
			Msg("force-failed sessions stale beyond the recovery window")
	}

	cutoff := now.AddDate(0, 0, -w.retentionDays)
	removed, err := w.sessions.DeleteTerminalBefore(ctx, cutoff, nil)
	if err != nil {
		log.Err(err).
			Str("func", "CleanupWorker.RunOnce").
			Msg("retention purge failed")
		return
	}
	if removed > 0 {
		log.Info().
			Str("func", "CleanupWorker.RunOnce").
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("purged sessions past retention")
	}
}

// CleanupUserHistory purges one user's terminal sessions on demand. days
// overrides the retention window; zero or negative purges everything
// terminal. Returns the number of sessions removed.
func (w *CleanupWorker) CleanupUserHistory(ctx context.Context, userID int64, days int) (int64, error) {
	cutoff := time.Now()
	if days > 0 {
		cutoff = cutoff.AddDate(0, 0, -days)
	}

	return w.sessions.DeleteTerminalBefore(ctx, cutoff, &userID)
}
