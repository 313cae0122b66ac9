// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/models"
)

// fakeSessionRepo is an in-memory SessionRepository shared by the
// package tests.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]models.SyncSession
	records  []models.SyncOperationRecord
	saveErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]models.SyncSession)}
}

func (f *fakeSessionRepo) SaveSession(_ context.Context, session *models.SyncSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[session.ID] = *copySession(session)
	return nil
}

func (f *fakeSessionRepo) GetSession(_ context.Context, sessionID string) (*models.SyncSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return copySession(&session), nil
}

func (f *fakeSessionRepo) ListRecoverable(_ context.Context, cutoff time.Time) ([]models.SyncSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.SyncSession
	for _, s := range f.sessions {
		recoverable := s.Status == models.SessionPending || s.Status == models.SessionRunning
		if recoverable && !s.UpdatedAt.Before(cutoff) {
			out = append(out, *copySession(&s))
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ListUserHistory(_ context.Context, userID int64, _, _ int) ([]models.SyncSession, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.SyncSession
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status.Terminal() {
			out = append(out, *copySession(&s))
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSessionRepo) DeleteTerminalBefore(_ context.Context, cutoff time.Time, userID *int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var removed int64
	for id, s := range f.sessions {
		if !s.Status.Terminal() || s.CompletedAt == nil || !s.CompletedAt.Before(cutoff) {
			continue
		}
		if userID != nil && s.UserID != *userID {
			continue
		}
		delete(f.sessions, id)
		removed++
	}
	return removed, nil
}

func (f *fakeSessionRepo) FailStaleBefore(_ context.Context, cutoff time.Time, errorMessage string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var failed int64
	for id, s := range f.sessions {
		if s.Status.Terminal() || !s.UpdatedAt.Before(cutoff) {
			continue
		}
		now := time.Now()
		s.Status = models.SessionFailed
		s.ErrorMessage = errorMessage
		s.CompletedAt = &now
		f.sessions[id] = s
		failed++
	}
	return failed, nil
}

func (f *fakeSessionRepo) SaveOperationRecord(_ context.Context, _ string, _ int64, record models.SyncOperationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records = append(f.records, record)
	return nil
}

func (f *fakeSessionRepo) UpdateOperationRecord(_ context.Context, recordID string, status models.OperationRecordStatus, errMessage string, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.records {
		if f.records[i].ID == recordID {
			f.records[i].Status = status
			f.records[i].Error = errMessage
			f.records[i].CompletedAt = completedAt
			return nil
		}
	}
	return store.ErrOperationRecordNotFound
}

// captureSink records every published event.
type captureSink struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (c *captureSink) Publish(_ context.Context, event models.SessionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureSink) byKind(kind models.EventKind) []models.SessionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.SessionEvent
	for _, e := range c.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestManager(t *testing.T) (*Manager, *fakeSessionRepo, *captureSink) {
	t.Helper()

	repo := newFakeSessionRepo()
	sink := &captureSink{}
	log := logger.NewLogger("test")
	stats := NewStatsAggregator(nil, log)
	m := NewManager(repo, stats, sink, config.Sync{ProgressEventThreshold: 5}, log)
	return m, repo, sink
}

func TestCreate_InitialState(t *testing.T) {
	m, repo, sink := newTestManager(t)

	session := m.Create(context.Background(), 7, "device-a", 10)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionPending, session.Status)
	assert.Equal(t, models.PhaseInit, session.Phase)
	assert.Equal(t, 10, session.Progress.Total)
	assert.Zero(t, session.Progress.Completed)
	assert.Zero(t, session.Progress.Percentage)

	// Persisted and announced.
	_, err := repo.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, sink.byKind(models.EventSessionCreated), 1)
	assert.Equal(t, 1, m.ActiveCount())
}

func TestUpdate_PartialMergeKeepsUnsetFields(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 10)

	running := models.SessionRunning
	label := "pushing notes"
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{
		Status:           &running,
		CurrentOperation: &label,
	}))

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, got.Status)
	assert.Equal(t, "pushing notes", got.CurrentOperation)

	// Fields absent from the update are untouched.
	assert.Equal(t, "device-a", got.DeviceID)
	assert.Equal(t, 10, got.Progress.Total)
	assert.Equal(t, models.PhaseInit, got.Phase)

	// A second update without status keeps the earlier status.
	phase := models.PhasePush
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{Phase: &phase}))

	got, err = m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, got.Status)
	assert.Equal(t, models.PhasePush, got.Phase)
	assert.Equal(t, "pushing notes", got.CurrentOperation)
}

func TestUpdate_ClearsErrorMessage(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)

	running := models.SessionRunning
	message := "push rejected"
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{
		Status:       &running,
		ErrorMessage: &message,
	}))

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "push rejected", got.ErrorMessage)

	// A pointer at the empty string clears the field.
	empty := ""
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{ErrorMessage: &empty}))

	got, err = m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ErrorMessage)

	// A nil pointer leaves it alone.
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{ErrorMessage: &message}))
	phase := models.PhasePush
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{Phase: &phase}))

	got, err = m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "push rejected", got.ErrorMessage)
}

func TestUpdate_StatusMonotonicity(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)

	running := models.SessionRunning
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{Status: &running}))

	// No session may re-enter pending after leaving it.
	pending := models.SessionPending
	assert.False(t, m.Update(ctx, session.ID, models.SessionUpdate{Status: &pending}))

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, got.Status)
}

func TestUpdate_ThrottlesStatusEvents(t *testing.T) {
	m, _, sink := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 100)
	running := models.SessionRunning
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{Status: &running}))

	emitted := len(sink.byKind(models.EventStatusUpdated))

	// +2% progress via Update: below the 5-point threshold, no event.
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{
		Progress: &models.SyncProgress{Total: 100, Completed: 2},
	}))
	assert.Len(t, sink.byKind(models.EventStatusUpdated), emitted)

	// +6% since last emission crosses the threshold.
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{
		Progress: &models.SyncProgress{Total: 100, Completed: 6},
	}))
	assert.Len(t, sink.byKind(models.EventStatusUpdated), emitted+1)
}

func TestUpdateProgress_PercentageInvariant(t *testing.T) {
	m, _, sink := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 10)

	require.True(t, m.IncrementProgress(ctx, session.ID, 3, 0))
	require.True(t, m.IncrementProgress(ctx, session.ID, 0, 2))

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Progress.Completed)
	assert.Equal(t, 2, got.Progress.Failed)
	assert.Equal(t, 30, got.Progress.Percentage)

	// Progress events are never throttled.
	assert.Len(t, sink.byKind(models.EventProgressUpdated), 2)
}

func TestSetPhase_EmitsPhaseEvent(t *testing.T) {
	m, _, sink := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)
	require.True(t, m.SetPhase(ctx, session.ID, models.PhasePull))

	events := sink.byKind(models.EventPhaseChanged)
	require.Len(t, events, 1)
	assert.Equal(t, models.PhasePull, events[0].Phase)
}

func TestAddOperationRecord_AppendsAndLogs(t *testing.T) {
	m, repo, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)

	recordID, ok := m.AddOperationRecord(ctx, session.ID, models.SyncOperationRecord{
		Type:       models.OperationCreate,
		EntityType: models.EntityNote,
		EntityID:   "note-1",
		Status:     models.RecordProcessing,
	})
	require.True(t, ok)
	assert.NotEmpty(t, recordID)

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Operations, 1)
	assert.Equal(t, recordID, got.Operations[0].ID)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.records, 1)
	assert.Equal(t, recordID, repo.records[0].ID)
}

func TestUpdateOperationRecord_SetsCompletion(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)
	recordID, ok := m.AddOperationRecord(ctx, session.ID, models.SyncOperationRecord{
		Type:       models.OperationUpdate,
		EntityType: models.EntityNote,
		Status:     models.RecordProcessing,
	})
	require.True(t, ok)

	require.True(t, m.UpdateOperationRecord(ctx, session.ID, recordID, models.RecordFailed, "hash mismatch"))

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	record := got.FindOperationRecord(recordID)
	require.NotNil(t, record)
	assert.Equal(t, models.RecordFailed, record.Status)
	assert.Equal(t, "hash mismatch", record.Error)
	assert.NotNil(t, record.CompletedAt)

	assert.False(t, m.UpdateOperationRecord(ctx, session.ID, "missing", models.RecordCompleted, ""))
}

func TestComplete_EvictsAndFallsBackToDurable(t *testing.T) {
	m, _, sink := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 2)
	running := models.SessionRunning
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{Status: &running}))

	require.True(t, m.Complete(ctx, session.ID, models.SessionCompleted, ""))

	// Evicted from the active set.
	assert.Equal(t, 0, m.ActiveCount())

	// Still reachable through the durable record.
	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	require.Len(t, sink.byKind(models.EventSessionCompleted), 1)

	// Further mutations miss.
	assert.False(t, m.Complete(ctx, session.ID, models.SessionFailed, ""))
}

func TestComplete_RejectsNonTerminalStatus(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)
	assert.False(t, m.Complete(ctx, session.ID, models.SessionRunning, ""))
	assert.Equal(t, 1, m.ActiveCount())
}

func TestCancelAndResume(t *testing.T) {
	m, _, sink := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)
	running := models.SessionRunning
	require.True(t, m.Update(ctx, session.ID, models.SessionUpdate{Status: &running}))

	require.True(t, m.Cancel(ctx, session.ID))
	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaused, got.Status)

	// Cancelled sessions stay active so they can be resumed.
	assert.Equal(t, 1, m.ActiveCount())
	require.Len(t, sink.byKind(models.EventSessionCancelled), 1)

	require.True(t, m.Resume(ctx, session.ID))
	got, err = m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, got.Status)

	// Resume is only valid from paused.
	assert.False(t, m.Resume(ctx, session.ID))
}

func TestGet_UnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestListActiveForUser(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	m.Create(ctx, 7, "device-a", 1)
	m.Create(ctx, 7, "device-b", 1)
	m.Create(ctx, 8, "device-c", 1)

	assert.Len(t, m.ListActiveForUser(7), 2)
	assert.Equal(t, 2, m.ActiveCountForUser(7))
	assert.Equal(t, 1, m.ActiveCountForUser(8))
	assert.Empty(t, m.ListActiveForUser(9))
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	m, repo, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 1)
	repo.saveErr = errors.New("disk full")

	running := models.SessionRunning
	assert.True(t, m.Update(ctx, session.ID, models.SessionUpdate{Status: &running}))

	// In-memory state is authoritative.
	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, got.Status)
}

func TestConcurrentProgress_SameSessionSerializes(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session := m.Create(ctx, 7, "device-a", 200)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				m.IncrementProgress(ctx, session.ID, 1, 0)
			}
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, got.Progress.Completed)
	assert.Equal(t, 100, got.Progress.Percentage)
}
