package http

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/service"
	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

// mockSyncService lets each test plug in just the methods it exercises;
// unset methods return zero values.
type mockSyncService struct {
	createSessionFn   func(ctx context.Context, userID int64, req models.CreateSessionRequest) (*models.CreateSessionResponse, error)
	processBatchFn    func(ctx context.Context, userID int64, sessionID string, req models.PushRequest) (*models.PushResponse, error)
	pullFn            func(ctx context.Context, userID int64, req models.PullRequest) (*models.PullResponse, error)
	getSessionFn      func(ctx context.Context, userID int64, sessionID string) (*models.SyncSession, error)
	cancelSessionFn   func(ctx context.Context, userID int64, sessionID string) error
	resumeSessionFn   func(ctx context.Context, userID int64, sessionID string) error
	resolveConflictFn func(ctx context.Context, userID int64, conflictID string, resolution models.ConflictResolution) (*models.ConflictResolutionResult, error)
	historyFn         func(ctx context.Context, userID int64, page, limit int) (*models.SessionHistoryPage, error)
	statisticsFn      func(ctx context.Context, userID int64) (*models.SyncStatistics, error)
	purgeHistoryFn    func(ctx context.Context, userID int64, days int) (int64, error)
}

func (m *mockSyncService) CreateSession(ctx context.Context, userID int64, req models.CreateSessionRequest) (*models.CreateSessionResponse, error) {
	if m.createSessionFn == nil {
		return &models.CreateSessionResponse{}, nil
	}
	return m.createSessionFn(ctx, userID, req)
}

func (m *mockSyncService) ProcessBatch(ctx context.Context, userID int64, sessionID string, req models.PushRequest) (*models.PushResponse, error) {
	if m.processBatchFn == nil {
		return &models.PushResponse{}, nil
	}
	return m.processBatchFn(ctx, userID, sessionID, req)
}

func (m *mockSyncService) Pull(ctx context.Context, userID int64, req models.PullRequest) (*models.PullResponse, error) {
	if m.pullFn == nil {
		return &models.PullResponse{}, nil
	}
	return m.pullFn(ctx, userID, req)
}

func (m *mockSyncService) GetSession(ctx context.Context, userID int64, sessionID string) (*models.SyncSession, error) {
	if m.getSessionFn == nil {
		return &models.SyncSession{}, nil
	}
	return m.getSessionFn(ctx, userID, sessionID)
}

func (m *mockSyncService) CancelSession(ctx context.Context, userID int64, sessionID string) error {
	if m.cancelSessionFn == nil {
		return nil
	}
	return m.cancelSessionFn(ctx, userID, sessionID)
}

func (m *mockSyncService) ResumeSession(ctx context.Context, userID int64, sessionID string) error {
	if m.resumeSessionFn == nil {
		return nil
	}
	return m.resumeSessionFn(ctx, userID, sessionID)
}

func (m *mockSyncService) ResolveConflict(ctx context.Context, userID int64, conflictID string, resolution models.ConflictResolution) (*models.ConflictResolutionResult, error) {
	if m.resolveConflictFn == nil {
		return &models.ConflictResolutionResult{}, nil
	}
	return m.resolveConflictFn(ctx, userID, conflictID, resolution)
}

func (m *mockSyncService) History(ctx context.Context, userID int64, page, limit int) (*models.SessionHistoryPage, error) {
	if m.historyFn == nil {
		return &models.SessionHistoryPage{}, nil
	}
	return m.historyFn(ctx, userID, page, limit)
}

func (m *mockSyncService) Statistics(ctx context.Context, userID int64) (*models.SyncStatistics, error) {
	if m.statisticsFn == nil {
		return models.NewSyncStatistics(userID), nil
	}
	return m.statisticsFn(ctx, userID)
}

func (m *mockSyncService) PurgeHistory(ctx context.Context, userID int64, days int) (int64, error) {
	if m.purgeHistoryFn == nil {
		return 0, nil
	}
	return m.purgeHistoryFn(ctx, userID, days)
}

func newTestHandler(svc service.SyncService) *Handler {
	return &Handler{
		services: &service.Services{SyncService: svc},
		cfg:      config.App{Version: "test-version"},
		logger:   logger.Nop(),
	}
}

func withUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, utils.UserIDCtxKey, userID)
}

func TestNewHandler_StoresDependencies(t *testing.T) {
	svcs := &service.Services{}
	log := logger.Nop()
	cfg := config.App{Version: "1.2.3"}

	h := NewHandler(svcs, cfg, log)

	require.NotNil(t, h)
	assert.Equal(t, svcs, h.services)
	assert.Equal(t, cfg, h.cfg)
	assert.Equal(t, log, h.logger)
}

func TestInit_ReturnsRouter(t *testing.T) {
	h := newTestHandler(&mockSyncService{})

	require.NotNil(t, h.Init())
}
