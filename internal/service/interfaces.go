// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package service

import (
	"context"

	"github.com/ndelyukov/go-note-sync/models"
)

// SyncService is the orchestration surface the transport layer talks to.
// Every call is scoped to the authenticated user; a session or conflict
// belonging to someone else behaves as if it does not exist.
type SyncService interface {
	// CreateSession opens a new session for the user's device.
	CreateSession(ctx context.Context, userID int64, req models.CreateSessionRequest) (*models.CreateSessionResponse, error)

	// ProcessBatch pushes one batch of operations into an open session.
	ProcessBatch(ctx context.Context, userID int64, sessionID string, req models.PushRequest) (*models.PushResponse, error)

	// Pull returns the entity states modified by the user since the
	// request's cursor.
	Pull(ctx context.Context, userID int64, req models.PullRequest) (*models.PullResponse, error)

	// GetSession returns session detail, active or durable.
	GetSession(ctx context.Context, userID int64, sessionID string) (*models.SyncSession, error)

	// CancelSession pauses an active session.
	CancelSession(ctx context.Context, userID int64, sessionID string) error

	// ResumeSession moves a paused session back to running.
	ResumeSession(ctx context.Context, userID int64, sessionID string) error

	// ResolveConflict settles one open conflict with the requested
	// strategy and, when the session has nothing left to do, completes
	// it.
	ResolveConflict(ctx context.Context, userID int64, conflictID string, resolution models.ConflictResolution) (*models.ConflictResolutionResult, error)

	// History returns one page of the user's terminal sessions.
	History(ctx context.Context, userID int64, page, limit int) (*models.SessionHistoryPage, error)

	// Statistics returns the user's cumulative sync statistics.
	Statistics(ctx context.Context, userID int64) (*models.SyncStatistics, error)

	// PurgeHistory removes the user's terminal sessions older than the
	// override window; days <= 0 purges everything terminal.
	PurgeHistory(ctx context.Context, userID int64, days int) (int64, error)
}
