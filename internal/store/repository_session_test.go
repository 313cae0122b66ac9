// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/models"
)

func newTestDB(t *testing.T) (*DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	l := logger.NewLogger("test")
	db := &DB{
		DB:      conn,
		engine:  config.EngineSQLite,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  l,
	}
	return db, mock, conn
}

func newTestSessionRepo(t *testing.T) (*sessionRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, conn := newTestDB(t)
	repo := &sessionRepository{
		DB:     db,
		logger: db.logger,
	}
	return repo, mock, conn
}

func testSession(now time.Time) *models.SyncSession {
	return &models.SyncSession{
		ID:       "sess-1",
		UserID:   7,
		DeviceID: "device-a",
		Status:   models.SessionRunning,
		Phase:    models.PhasePush,
		Progress: models.SyncProgress{
			Total:      4,
			Completed:  2,
			Percentage: 50,
		},
		StartedAt: now,
		UpdatedAt: now,
		Operations: []models.SyncOperationRecord{
			{
				ID:         "op-1",
				Type:       models.OperationCreate,
				EntityType: models.EntityNote,
				EntityID:   "note-1",
				Status:     models.RecordCompleted,
				CreatedAt:  now,
			},
		},
		Counters: models.EntityCounters{
			models.EntityNote: {Created: 1},
		},
	}
}

func TestSaveSession_Success(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	session := testSession(time.Now())

	mock.ExpectExec("INSERT INTO sync_sessions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveSession(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestSaveSession_DBError(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	mock.ExpectExec("INSERT INTO sync_sessions").
		WillReturnError(errors.New("disk full"))

	err := repo.SaveSession(context.Background(), testSession(time.Now()))
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected ErrExecutingQuery, got %v", err)
	}
}

func TestGetSession_Success(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	now := time.Now()
	session := testSession(now)

	operations, err := marshalList(session.Operations)
	if err != nil {
		t.Fatalf("failed to marshal operations: %v", err)
	}
	conflicts, err := marshalList(session.Conflicts)
	if err != nil {
		t.Fatalf("failed to marshal conflicts: %v", err)
	}

	rows := sqlmock.NewRows(sessionColumns).
		AddRow(
			session.ID, session.UserID, session.DeviceID,
			string(session.Status), string(session.Phase),
			session.Progress.Total, session.Progress.Completed,
			session.Progress.Failed, session.Progress.Percentage,
			"", "", now, now, nil,
			operations, conflicts, `{"note":{"created":1}}`,
		)

	mock.ExpectQuery("SELECT .+ FROM sync_sessions").
		WithArgs(session.ID).
		WillReturnRows(rows)

	got, err := repo.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("expected id %s, got %s", session.ID, got.ID)
	}
	if got.Status != models.SessionRunning {
		t.Errorf("expected running status, got %s", got.Status)
	}
	if len(got.Operations) != 1 || got.Operations[0].ID != "op-1" {
		t.Errorf("expected decoded operation log, got %+v", got.Operations)
	}
	if got.Counters[models.EntityNote].Created != 1 {
		t.Errorf("expected decoded counters, got %+v", got.Counters)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	mock.ExpectQuery("SELECT .+ FROM sync_sessions").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSession(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListUserHistory_Success(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	now := time.Now()
	session := testSession(now)
	session.Status = models.SessionCompleted
	session.CompletedAt = &now

	operations, _ := marshalList(session.Operations)
	conflicts, _ := marshalList(session.Conflicts)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(7), string(models.SessionCompleted), string(models.SessionFailed)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	rows := sqlmock.NewRows(sessionColumns).
		AddRow(
			session.ID, session.UserID, session.DeviceID,
			string(session.Status), string(session.Phase),
			session.Progress.Total, session.Progress.Completed,
			session.Progress.Failed, session.Progress.Percentage,
			"", "", now, now, now,
			operations, conflicts, `{}`,
		)

	mock.ExpectQuery("SELECT .+ FROM sync_sessions").
		WillReturnRows(rows)

	sessions, total, err := repo.ListUserHistory(context.Background(), 7, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("expected total=1, got %d", total)
	}
	if len(sessions) != 1 || sessions[0].ID != session.ID {
		t.Errorf("expected one session %s, got %+v", session.ID, sessions)
	}
	if sessions[0].CompletedAt == nil {
		t.Error("expected completed_at to be decoded")
	}
}

func TestListRecoverable_Success(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	now := time.Now()
	session := testSession(now)
	operations, _ := marshalList(session.Operations)
	conflicts, _ := marshalList(session.Conflicts)

	rows := sqlmock.NewRows(sessionColumns).
		AddRow(
			session.ID, session.UserID, session.DeviceID,
			string(session.Status), string(session.Phase),
			session.Progress.Total, session.Progress.Completed,
			session.Progress.Failed, session.Progress.Percentage,
			"", "", now, now, nil,
			operations, conflicts, `{}`,
		)

	mock.ExpectQuery("SELECT .+ FROM sync_sessions").
		WillReturnRows(rows)

	sessions, err := repo.ListRecoverable(context.Background(), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
}

func TestDeleteTerminalBefore_Success(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM sync_operations").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM sync_sessions").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	removed, err := repo.DeleteTerminalBefore(context.Background(), time.Now(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed sessions, got %d", removed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestDeleteTerminalBefore_RollsBackOnChildError(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM sync_operations").
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	_, err := repo.DeleteTerminalBefore(context.Background(), time.Now(), nil)
	if !errors.Is(err, ErrExecutingQuery) {
		t.Fatalf("expected ErrExecutingQuery, got %v", err)
	}
}

func TestFailStaleBefore_Success(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	mock.ExpectExec("UPDATE sync_sessions").
		WillReturnResult(sqlmock.NewResult(0, 4))

	failed, err := repo.FailStaleBefore(context.Background(), time.Now(), "sync interrupted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failed != 4 {
		t.Errorf("expected 4 failed sessions, got %d", failed)
	}
}

func TestSaveOperationRecord_Success(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	record := models.SyncOperationRecord{
		ID:         "op-9",
		Type:       models.OperationUpdate,
		EntityType: models.EntityNote,
		EntityID:   "note-2",
		Status:     models.RecordPending,
		CreatedAt:  time.Now(),
	}

	mock.ExpectExec("INSERT INTO sync_operations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveOperationRecord(context.Background(), "sess-1", 7, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateOperationRecord_NotFound(t *testing.T) {
	repo, mock, conn := newTestSessionRepo(t)
	defer conn.Close()

	mock.ExpectExec("UPDATE sync_operations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateOperationRecord(context.Background(), "op-missing", models.RecordCompleted, "", nil)
	if !errors.Is(err, ErrOperationRecordNotFound) {
		t.Fatalf("expected ErrOperationRecordNotFound, got %v", err)
	}
}
