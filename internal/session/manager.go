// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

// Package session owns the synchronization session lifecycle: the active
// in-memory set, the state machine over it, crash recovery, retention
// cleanup, and per-user statistics.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

// activeSession pairs one live session with its own mutex, so mutations
// to the same session id serialize while different sessions proceed
// concurrently. lastEmittedPct is the progress percentage of the last
// throttled status event, in whole points.
type activeSession struct {
	mu             sync.Mutex
	session        *models.SyncSession
	lastEmittedPct int
}

// Manager is the session state machine. Active sessions live in a map
// under a read-write lock; every durable write is best-effort — on
// failure the in-memory state stays authoritative and the failure is
// logged, bounded by the recovery window.
type Manager struct {
	mu     sync.RWMutex
	active map[string]*activeSession

	sessions  store.SessionRepository // nil when persistence is disabled
	stats     *StatsAggregator
	sink      EventSink
	threshold int
	logger    *logger.Logger
}

// NewManager constructs a [Manager]. sessions may be nil to run
// memory-only; a nil sink falls back to [NopSink].
func NewManager(sessions store.SessionRepository, stats *StatsAggregator, sink EventSink, cfg config.Sync, log *logger.Logger) *Manager {
	if sink == nil {
		sink = NopSink{}
	}
	threshold := cfg.ProgressEventThreshold
	if threshold <= 0 {
		threshold = config.DefaultProgressEventThreshold
	}

	return &Manager{
		active:    make(map[string]*activeSession),
		sessions:  sessions,
		stats:     stats,
		sink:      sink,
		threshold: threshold,
		logger:    log,
	}
}

// Create allocates a new pending session for the (user, device) pair,
// registers it in the active set, persists it, and emits a creation
// event.
func (m *Manager) Create(ctx context.Context, userID int64, deviceID string, totalOps int) *models.SyncSession {
	now := time.Now()
	session := &models.SyncSession{
		ID:        utils.NewID(),
		UserID:    userID,
		DeviceID:  deviceID,
		Status:    models.SessionPending,
		Phase:     models.PhaseInit,
		Progress:  models.SyncProgress{Total: totalOps},
		StartedAt: now,
		UpdatedAt: now,
		Counters:  models.EntityCounters{},
	}

	m.mu.Lock()
	m.active[session.ID] = &activeSession{session: session}
	m.mu.Unlock()

	m.persist(ctx, session)
	m.emit(ctx, models.SessionEvent{
		Kind:      models.EventSessionCreated,
		SessionID: session.ID,
		UserID:    userID,
		DeviceID:  deviceID,
		NewStatus: session.Status,
	})

	logger.FromContext(ctx).Info().
		Str("func", "Manager.Create").
		Str("session_id", session.ID).
		Int64("user_id", userID).
		Str("device_id", deviceID).
		Int("total_ops", totalOps).
		Msg("sync session created")

	return copySession(session)
}

// Update merges the partial update into the session. Status moves are
// checked against the transition order; an illegal move rejects the whole
// update. A status event is emitted only when the status changed or the
// progress moved at least the configured threshold since the last
// emission.
func (m *Manager) Update(ctx context.Context, sessionID string, update models.SessionUpdate) bool {
	as := m.lookup(sessionID)
	if as == nil {
		return false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	session := as.session
	oldStatus := session.Status

	if update.Status != nil && !session.Status.CanTransitionTo(*update.Status) {
		logger.FromContext(ctx).Warn().
			Str("func", "Manager.Update").
			Str("session_id", sessionID).
			Str("from", string(session.Status)).
			Str("to", string(*update.Status)).
			Msg("rejected status transition")
		return false
	}

	// Pointer-carried scalars apply directly: a non-nil pointer always
	// wins, so an empty string clears the field instead of being skipped.
	if update.Status != nil {
		session.Status = *update.Status
	}
	if update.Phase != nil {
		session.Phase = *update.Phase
	}
	if update.CurrentOperation != nil {
		session.CurrentOperation = *update.CurrentOperation
	}
	if update.ErrorMessage != nil {
		session.ErrorMessage = *update.ErrorMessage
	}

	// Lists and maps replace wholesale, progress recomputes.
	if update.Progress != nil {
		session.Progress = *update.Progress
		session.Progress.Recompute()
	}
	if update.Operations != nil {
		session.Operations = update.Operations
	}
	if update.Conflicts != nil {
		session.Conflicts = update.Conflicts
	}
	if update.Counters != nil {
		session.Counters = update.Counters
	}
	session.UpdatedAt = time.Now()

	m.persist(ctx, session)

	statusChanged := session.Status != oldStatus
	delta := session.Progress.Percentage - as.lastEmittedPct
	if delta < 0 {
		delta = -delta
	}
	if statusChanged || delta >= m.threshold {
		as.lastEmittedPct = session.Progress.Percentage
		progress := session.Progress
		m.emit(ctx, models.SessionEvent{
			Kind:      models.EventStatusUpdated,
			SessionID: session.ID,
			UserID:    session.UserID,
			DeviceID:  session.DeviceID,
			OldStatus: oldStatus,
			NewStatus: session.Status,
			Progress:  &progress,
		})
	}

	return true
}

// UpdateProgress sets the counters outright and always emits a progress
// event: this is the primary progress signal and is never throttled.
func (m *Manager) UpdateProgress(ctx context.Context, sessionID string, completed, failed int) bool {
	return m.progress(ctx, sessionID, func(p *models.SyncProgress) {
		p.Completed = completed
		p.Failed = failed
	})
}

// IncrementProgress adds the deltas to the counters and always emits a
// progress event.
func (m *Manager) IncrementProgress(ctx context.Context, sessionID string, delta, failed int) bool {
	return m.progress(ctx, sessionID, func(p *models.SyncProgress) {
		p.Completed += delta
		p.Failed += failed
	})
}

func (m *Manager) progress(ctx context.Context, sessionID string, apply func(*models.SyncProgress)) bool {
	as := m.lookup(sessionID)
	if as == nil {
		return false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	session := as.session
	apply(&session.Progress)
	session.Progress.Recompute()
	session.UpdatedAt = time.Now()

	m.persist(ctx, session)

	as.lastEmittedPct = session.Progress.Percentage
	progress := session.Progress
	m.emit(ctx, models.SessionEvent{
		Kind:      models.EventProgressUpdated,
		SessionID: session.ID,
		UserID:    session.UserID,
		DeviceID:  session.DeviceID,
		Progress:  &progress,
	})

	return true
}

// SetPhase moves the session to the given phase and emits a phase event.
func (m *Manager) SetPhase(ctx context.Context, sessionID string, phase models.SyncPhase) bool {
	as := m.lookup(sessionID)
	if as == nil {
		return false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	session := as.session
	session.Phase = phase
	session.UpdatedAt = time.Now()

	m.persist(ctx, session)
	m.emit(ctx, models.SessionEvent{
		Kind:      models.EventPhaseChanged,
		SessionID: session.ID,
		UserID:    session.UserID,
		DeviceID:  session.DeviceID,
		Phase:     phase,
	})

	return true
}

// AddOperationRecord appends the record to the session's operation list
// and to the durable operation log. A missing id or creation time is
// filled in. Returns the record id and whether the session was found.
func (m *Manager) AddOperationRecord(ctx context.Context, sessionID string, record models.SyncOperationRecord) (string, bool) {
	as := m.lookup(sessionID)
	if as == nil {
		return "", false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	if record.ID == "" {
		record.ID = utils.NewID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	session := as.session
	session.Operations = append(session.Operations, record)
	session.UpdatedAt = time.Now()

	m.persist(ctx, session)

	if m.sessions != nil {
		if err := m.sessions.SaveOperationRecord(ctx, session.ID, session.UserID, record); err != nil {
			logger.FromContext(ctx).Err(err).
				Str("func", "Manager.AddOperationRecord").
				Str("session_id", session.ID).
				Str("record_id", record.ID).
				Msg("durable operation log write failed")
		}
	}

	return record.ID, true
}

// UpdateOperationRecord moves one operation record to the given status;
// completed and failed records get a completion timestamp.
func (m *Manager) UpdateOperationRecord(ctx context.Context, sessionID, recordID string, status models.OperationRecordStatus, errMessage string) bool {
	as := m.lookup(sessionID)
	if as == nil {
		return false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	session := as.session
	record := session.FindOperationRecord(recordID)
	if record == nil {
		return false
	}

	record.Status = status
	record.Error = errMessage
	if status == models.RecordCompleted || status == models.RecordFailed {
		now := time.Now()
		record.CompletedAt = &now
	}
	session.UpdatedAt = time.Now()

	m.persist(ctx, session)

	if m.sessions != nil {
		if err := m.sessions.UpdateOperationRecord(ctx, recordID, status, errMessage, record.CompletedAt); err != nil {
			logger.FromContext(ctx).Err(err).
				Str("func", "Manager.UpdateOperationRecord").
				Str("record_id", recordID).
				Msg("durable operation log update failed")
		}
	}

	return true
}

// Complete moves the session to a terminal status, persists the final
// state, evicts it from the active set, feeds the statistics aggregator,
// and emits a completion event. After eviction the session is reachable
// only through the durable record.
func (m *Manager) Complete(ctx context.Context, sessionID string, finalStatus models.SessionStatus, errorMessage string) bool {
	if !finalStatus.Terminal() {
		return false
	}

	as := m.lookup(sessionID)
	if as == nil {
		return false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	session := as.session
	if !session.Status.CanTransitionTo(finalStatus) {
		return false
	}

	oldStatus := session.Status
	now := time.Now()
	session.Status = finalStatus
	session.ErrorMessage = errorMessage
	session.UpdatedAt = now
	session.CompletedAt = &now

	m.persist(ctx, session)

	m.mu.Lock()
	delete(m.active, sessionID)
	m.mu.Unlock()

	if m.stats != nil {
		m.stats.RecordSession(ctx, session)
	}

	progress := session.Progress
	m.emit(ctx, models.SessionEvent{
		Kind:      models.EventSessionCompleted,
		SessionID: session.ID,
		UserID:    session.UserID,
		DeviceID:  session.DeviceID,
		OldStatus: oldStatus,
		NewStatus: finalStatus,
		Progress:  &progress,
	})

	logger.FromContext(ctx).Info().
		Str("func", "Manager.Complete").
		Str("session_id", session.ID).
		Str("status", string(finalStatus)).
		Dur("duration", now.Sub(session.StartedAt)).
		Msg("sync session finished")

	return true
}

// Cancel pauses the session. Cancellation is cooperative: the session
// stays in the active set so in-flight processing can observe the paused
// status and stop before its next step, and a later Resume can continue.
func (m *Manager) Cancel(ctx context.Context, sessionID string) bool {
	as := m.lookup(sessionID)
	if as == nil {
		return false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	session := as.session
	if !session.Status.CanTransitionTo(models.SessionPaused) {
		return false
	}

	oldStatus := session.Status
	session.Status = models.SessionPaused
	session.UpdatedAt = time.Now()

	m.persist(ctx, session)
	m.emit(ctx, models.SessionEvent{
		Kind:      models.EventSessionCancelled,
		SessionID: session.ID,
		UserID:    session.UserID,
		DeviceID:  session.DeviceID,
		OldStatus: oldStatus,
		NewStatus: models.SessionPaused,
	})

	return true
}

// Resume moves a paused session back to running.
func (m *Manager) Resume(ctx context.Context, sessionID string) bool {
	as := m.lookup(sessionID)
	if as == nil {
		return false
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	session := as.session
	if session.Status != models.SessionPaused {
		return false
	}

	session.Status = models.SessionRunning
	session.UpdatedAt = time.Now()

	m.persist(ctx, session)
	m.emit(ctx, models.SessionEvent{
		Kind:      models.EventStatusUpdated,
		SessionID: session.ID,
		UserID:    session.UserID,
		DeviceID:  session.DeviceID,
		OldStatus: models.SessionPaused,
		NewStatus: models.SessionRunning,
	})

	return true
}

// Get returns the session, preferring the active in-memory copy and
// falling back to the durable record for evicted (terminal) sessions.
func (m *Manager) Get(ctx context.Context, sessionID string) (*models.SyncSession, error) {
	if as := m.lookup(sessionID); as != nil {
		as.mu.Lock()
		defer as.mu.Unlock()
		return copySession(as.session), nil
	}

	if m.sessions == nil {
		return nil, store.ErrSessionNotFound
	}
	return m.sessions.GetSession(ctx, sessionID)
}

// ListActiveForUser returns copies of the user's active sessions.
func (m *Manager) ListActiveForUser(userID int64) []models.SyncSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sessions []models.SyncSession
	for _, as := range m.active {
		as.mu.Lock()
		if as.session.UserID == userID {
			sessions = append(sessions, *copySession(as.session))
		}
		as.mu.Unlock()
	}
	return sessions
}

// ActiveCount returns the size of the active set.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// ActiveCountForUser returns how many active sessions the user owns.
func (m *Manager) ActiveCountForUser(userID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, as := range m.active {
		if as.session.UserID == userID {
			count++
		}
	}
	return count
}

func (m *Manager) lookup(sessionID string) *activeSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// persist writes the session through to durable storage. Failure is
// logged and not propagated: the in-memory state stays authoritative and
// the recovery window bounds the exposure.
func (m *Manager) persist(ctx context.Context, session *models.SyncSession) {
	if m.sessions == nil {
		return
	}

	if err := m.sessions.SaveSession(ctx, session); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "Manager.persist").
			Str("session_id", session.ID).
			Msg("durable session write failed, in-memory state stays authoritative")
	}
}

func (m *Manager) emit(ctx context.Context, event models.SessionEvent) {
	event.EmittedAt = time.Now()
	m.sink.Publish(ctx, event)
}

func copySession(session *models.SyncSession) *models.SyncSession {
	out := *session

	if session.CompletedAt != nil {
		t := *session.CompletedAt
		out.CompletedAt = &t
	}
	out.Operations = append([]models.SyncOperationRecord(nil), session.Operations...)
	out.Conflicts = append([]models.Conflict(nil), session.Conflicts...)
	out.Counters = models.EntityCounters{}
	for entityType, set := range session.Counters {
		out.Counters[entityType] = set
	}

	return &out
}
