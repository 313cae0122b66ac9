// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/conflict"
	"github.com/ndelyukov/go-note-sync/internal/ledger"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/session"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

// syncService orchestrates the sync exchange: sessions through the state
// machine, versions through the ledger, conflicts through the detector
// and resolver.
type syncService struct {
	manager  *session.Manager
	ledger   *ledger.Ledger
	detector *conflict.Detector
	resolver *conflict.Resolver
	versions store.EntityVersionRepository
	sessions store.SessionRepository // nil when persistence is disabled
	cleanup  *session.CleanupWorker  // nil when persistence is disabled
	stats    *session.StatsAggregator
	logger   *logger.Logger
}

// NewSyncService constructs the [SyncService] over its collaborators.
// sessions and cleanup may be nil on a memory-only deployment; history
// and purge calls then fail with [ErrHistoryUnavailable].
func NewSyncService(
	manager *session.Manager,
	versionLedger *ledger.Ledger,
	detector *conflict.Detector,
	resolver *conflict.Resolver,
	versions store.EntityVersionRepository,
	sessions store.SessionRepository,
	cleanup *session.CleanupWorker,
	stats *session.StatsAggregator,
	log *logger.Logger,
) SyncService {
	return &syncService{
		manager:  manager,
		ledger:   versionLedger,
		detector: detector,
		resolver: resolver,
		versions: versions,
		sessions: sessions,
		cleanup:  cleanup,
		stats:    stats,
		logger:   log,
	}
}

// CreateSession implements [SyncService].
func (s *syncService) CreateSession(ctx context.Context, userID int64, req models.CreateSessionRequest) (*models.CreateSessionResponse, error) {
	created := s.manager.Create(ctx, userID, req.DeviceID, req.TotalOperations)

	return &models.CreateSessionResponse{
		SessionID:       created.ID,
		ProtocolVersion: models.CurrentProtocolVersion,
	}, nil
}

// ProcessBatch implements [SyncService]. Operations already recorded in
// the session are skipped without re-counting, so a client retrying a
// batch after a dropped response cannot double-apply. Cancellation is
// observed between operations: once the session turns paused the rest
// of the batch is left unprocessed.
func (s *syncService) ProcessBatch(ctx context.Context, userID int64, sessionID string, req models.PushRequest) (*models.PushResponse, error) {
	snap, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snap.UserID != userID {
		return nil, store.ErrSessionNotFound
	}
	if snap.Status.Terminal() || snap.Status == models.SessionPaused {
		return nil, ErrSessionNotActive
	}

	if snap.Status == models.SessionPending {
		running := models.SessionRunning
		s.manager.Update(ctx, sessionID, models.SessionUpdate{Status: &running})
	}
	s.manager.SetPhase(ctx, sessionID, models.PhasePush)

	processed := make(map[string]bool, len(snap.Operations))
	for _, record := range snap.Operations {
		processed[record.ID] = true
	}

	resp := &models.PushResponse{
		SessionID: sessionID,
		TempIDMap: make(map[string]string),
	}
	var opened []models.Conflict
	batchCounters := models.EntityCounters{}

	for i := range req.Operations {
		op := req.Operations[i]

		current, err := s.manager.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.SessionPaused {
			break
		}

		if processed[op.ID] {
			continue
		}
		processed[op.ID] = true

		if op.Type == models.OperationRead {
			continue
		}

		if err := op.Validate(); err != nil {
			s.recordOperation(ctx, sessionID, op, models.RecordFailed, err.Error())
			s.manager.IncrementProgress(ctx, sessionID, 0, 1)
			resp.Failed++
			continue
		}

		if op.Type == models.OperationCreate && op.EntityID == "" {
			op.EntityID = utils.NewID()
		}

		var server *models.EntityVersion
		state, err := s.ledger.Current(ctx, op.EntityType, op.EntityID)
		switch {
		case err == nil:
			server = &state
		case errors.Is(err, store.ErrEntityVersionNotFound):
		default:
			return nil, err
		}

		if detected := s.detector.Detect(conflict.Input{Operation: op, UserID: userID, Server: server}); detected != nil {
			opened = append(opened, *detected)
			s.recordOperation(ctx, sessionID, op, models.RecordFailed, fmt.Sprintf("conflict detected: %s", detected.Type))
			s.manager.IncrementProgress(ctx, sessionID, 0, 1)
			resp.Failed++
			continue
		}

		if err := s.apply(ctx, userID, op); err != nil {
			s.recordOperation(ctx, sessionID, op, models.RecordFailed, err.Error())
			s.manager.IncrementProgress(ctx, sessionID, 0, 1)
			resp.Failed++
			continue
		}

		if op.Type == models.OperationCreate && op.TempID != "" {
			resp.TempIDMap[op.TempID] = op.EntityID
		}
		batchCounters.Add(op.EntityType, op.Type)
		s.recordOperation(ctx, sessionID, op, models.RecordCompleted, "")
		s.manager.IncrementProgress(ctx, sessionID, 1, 0)
		resp.Accepted++
	}

	snap, err = s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	counters := snap.Counters
	if counters == nil {
		counters = models.EntityCounters{}
	}
	for entityType, set := range batchCounters {
		merged := counters[entityType]
		merged.Created += set.Created
		merged.Updated += set.Updated
		merged.Deleted += set.Deleted
		counters[entityType] = merged
	}
	allConflicts := append(snap.Conflicts, opened...)

	s.manager.Update(ctx, sessionID, models.SessionUpdate{
		Counters:  counters,
		Conflicts: allConflicts,
	})
	resp.Conflicts = opened

	switch {
	case len(allConflicts) > 0:
		// The session cannot complete with open conflicts.
		s.manager.SetPhase(ctx, sessionID, models.PhaseConflictResolution)

	case snap.Status != models.SessionPaused && snap.Progress.Completed+snap.Progress.Failed >= snap.Progress.Total:
		s.manager.SetPhase(ctx, sessionID, models.PhaseCleanup)
		s.manager.Complete(ctx, sessionID, models.SessionCompleted, "")
		resp.ClientState = s.clientState(req, sessionID)
	}

	return resp, nil
}

// apply writes one clean operation through the ledger.
func (s *syncService) apply(ctx context.Context, userID int64, op models.SyncOperation) error {
	if op.Type == models.OperationDelete {
		_, err := s.ledger.Tombstone(ctx, op.EntityType, op.EntityID, userID)
		return err
	}

	hash := op.DataHash
	if hash == "" {
		if len(op.Data) > 0 {
			hash = utils.HashPayload(op.Data)
		} else {
			hash = utils.HashPayload(op.Changes)
		}
	}

	_, err := s.ledger.Advance(ctx, op.EntityType, op.EntityID, userID, hash, op.ClientToken)
	return err
}

func (s *syncService) recordOperation(ctx context.Context, sessionID string, op models.SyncOperation, status models.OperationRecordStatus, errMessage string) {
	record := models.SyncOperationRecord{
		ID:         op.ID,
		Type:       op.Type,
		EntityType: op.EntityType,
		EntityID:   op.EntityID,
		Status:     status,
		Error:      errMessage,
	}
	if status == models.RecordCompleted || status == models.RecordFailed {
		now := time.Now()
		record.CompletedAt = &now
	}

	s.manager.AddOperationRecord(ctx, sessionID, record)
}

func (s *syncService) clientState(req models.PushRequest, sessionID string) *models.ClientSyncState {
	now := time.Now()
	return &models.ClientSyncState{
		ClientID:              req.ClientID,
		LastSyncTime:          &now,
		ServerProtocolVersion: models.CurrentProtocolVersion,
		PendingOperations:     req.PendingOperations,
		LastSessionID:         sessionID,
	}
}

// Pull implements [SyncService].
func (s *syncService) Pull(ctx context.Context, userID int64, req models.PullRequest) (*models.PullResponse, error) {
	states, err := s.versions.ListStates(ctx, userID, req.EntityTypes, req.Since)
	if err != nil {
		return nil, err
	}

	return &models.PullResponse{
		States: states,
		Length: len(states),
	}, nil
}

// GetSession implements [SyncService].
func (s *syncService) GetSession(ctx context.Context, userID int64, sessionID string) (*models.SyncSession, error) {
	snap, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snap.UserID != userID {
		return nil, store.ErrSessionNotFound
	}
	return snap, nil
}

// CancelSession implements [SyncService].
func (s *syncService) CancelSession(ctx context.Context, userID int64, sessionID string) error {
	if err := s.ownSession(ctx, userID, sessionID); err != nil {
		return err
	}
	if !s.manager.Cancel(ctx, sessionID) {
		return ErrSessionNotActive
	}
	return nil
}

// ResumeSession implements [SyncService].
func (s *syncService) ResumeSession(ctx context.Context, userID int64, sessionID string) error {
	if err := s.ownSession(ctx, userID, sessionID); err != nil {
		return err
	}
	if !s.manager.Resume(ctx, sessionID) {
		return ErrSessionNotActive
	}
	return nil
}

func (s *syncService) ownSession(ctx context.Context, userID int64, sessionID string) error {
	snap, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if snap.UserID != userID {
		return store.ErrSessionNotFound
	}
	return nil
}

// ResolveConflict implements [SyncService]. After the last conflict of a
// session resolves, the session either completes (all operations
// accounted for) or returns to the push phase for the remainder.
func (s *syncService) ResolveConflict(ctx context.Context, userID int64, conflictID string, resolution models.ConflictResolution) (*models.ConflictResolutionResult, error) {
	for _, snap := range s.manager.ListActiveForUser(userID) {
		for i := range snap.Conflicts {
			if snap.Conflicts[i].ID != conflictID {
				continue
			}

			result := s.resolver.Resolve(ctx, snap.Conflicts[i], resolution)
			if !result.Success {
				return &result, nil
			}

			remaining := make([]models.Conflict, 0, len(snap.Conflicts)-1)
			remaining = append(remaining, snap.Conflicts[:i]...)
			remaining = append(remaining, snap.Conflicts[i+1:]...)
			s.manager.Update(ctx, snap.ID, models.SessionUpdate{Conflicts: remaining})

			if len(remaining) == 0 {
				if snap.Progress.Completed+snap.Progress.Failed >= snap.Progress.Total {
					s.manager.SetPhase(ctx, snap.ID, models.PhaseCleanup)
					s.manager.Complete(ctx, snap.ID, models.SessionCompleted, "")
				} else {
					s.manager.SetPhase(ctx, snap.ID, models.PhasePush)
				}
			}

			return &result, nil
		}
	}

	return nil, ErrConflictNotFound
}

// History implements [SyncService].
func (s *syncService) History(ctx context.Context, userID int64, page, limit int) (*models.SessionHistoryPage, error) {
	if s.sessions == nil {
		return nil, ErrHistoryUnavailable
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	sessions, total, err := s.sessions.ListUserHistory(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	return &models.SessionHistoryPage{
		Sessions: sessions,
		Page:     page,
		Limit:    limit,
		Total:    total,
	}, nil
}

// Statistics implements [SyncService].
func (s *syncService) Statistics(ctx context.Context, userID int64) (*models.SyncStatistics, error) {
	return s.stats.Get(ctx, userID)
}

// PurgeHistory implements [SyncService].
func (s *syncService) PurgeHistory(ctx context.Context, userID int64, days int) (int64, error) {
	if s.cleanup == nil {
		return 0, ErrHistoryUnavailable
	}
	return s.cleanup.CleanupUserHistory(ctx, userID, days)
}
