// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/models"
)

// InterruptionMessage is the synthetic failure reason assigned to
// sessions found incomplete after a restart.
const InterruptionMessage = "session interrupted by server restart"

// RecoveryManager reconciles sessions a prior process left in
// pending/running. Only sessions touched within the recovery window are
// failed; anything staler is left for the retention pass, which
// force-fails it on its next run. The window is a heuristic bound, not
// an exhaustive recovery guarantee.
type RecoveryManager struct {
	sessions store.SessionRepository
	window   time.Duration
	logger   *logger.Logger
}

// NewRecoveryManager constructs a [RecoveryManager] with the given
// recovery window.
func NewRecoveryManager(sessions store.SessionRepository, window time.Duration, log *logger.Logger) *RecoveryManager {
	return &RecoveryManager{
		sessions: sessions,
		window:   window,
		logger:   log,
	}
}

// Run performs one recovery sweep and returns how many sessions were
// marked failed.
func (r *RecoveryManager) Run(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	cutoff := time.Now().Add(-r.window)
	stale, err := r.sessions.ListRecoverable(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("recovery scan failed: %w", err)
	}

	recovered := 0
	for i := range stale {
		session := stale[i]

		now := time.Now()
		session.Status = models.SessionFailed
		session.ErrorMessage = InterruptionMessage
		session.UpdatedAt = now
		session.CompletedAt = &now

		if err := r.sessions.SaveSession(ctx, &session); err != nil {
			log.Err(err).
				Str("func", "RecoveryManager.Run").
				Str("session_id", session.ID).
				Msg("failed to mark interrupted session")
			continue
		}
		recovered++
	}

	if recovered > 0 {
		log.Info().
			Str("func", "RecoveryManager.Run").
			Int("recovered", recovered).
			Dur("window", r.window).
			Msg("marked interrupted sessions as failed")
	}

	return recovered, nil
}
