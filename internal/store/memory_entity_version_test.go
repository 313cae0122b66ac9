package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndelyukov/go-note-sync/models"
)

func TestMemoryEntityVersionRepository_GetUnknown(t *testing.T) {
	repo := NewMemoryEntityVersionRepository()

	_, err := repo.Get(context.Background(), models.EntityNote, "nope")
	if !errors.Is(err, ErrEntityVersionNotFound) {
		t.Fatalf("expected ErrEntityVersionNotFound, got %v", err)
	}
}

func TestMemoryEntityVersionRepository_UpsertReplaces(t *testing.T) {
	repo := NewMemoryEntityVersionRepository()
	ctx := context.Background()

	row := models.EntityVersion{
		EntityType:   models.EntityNote,
		EntityID:     "note-1",
		Version:      1,
		LastModified: time.Now(),
		ModifiedBy:   7,
	}

	if err := repo.Upsert(ctx, row); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	row.Version = 2
	if err := repo.Upsert(ctx, row); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.Get(ctx, models.EntityNote, "note-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("expected version 2, got %d", got.Version)
	}
}

func TestMemoryEntityVersionRepository_ListStatesFilters(t *testing.T) {
	repo := NewMemoryEntityVersionRepository()
	ctx := context.Background()
	now := time.Now()

	rows := []models.EntityVersion{
		{EntityType: models.EntityNote, EntityID: "note-1", Version: 1, LastModified: now, ModifiedBy: 7},
		{EntityType: models.EntityFolder, EntityID: "folder-1", Version: 1, LastModified: now, ModifiedBy: 7},
		{EntityType: models.EntityNote, EntityID: "stale", Version: 1, LastModified: now.Add(-2 * time.Hour), ModifiedBy: 7},
		{EntityType: models.EntityNote, EntityID: "foreign", Version: 1, LastModified: now, ModifiedBy: 8},
	}
	for _, row := range rows {
		if err := repo.Upsert(ctx, row); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	since := now.Add(-time.Hour)
	states, err := repo.ListStates(ctx, 7, []models.EntityType{models.EntityNote}, &since)
	if err != nil {
		t.Fatalf("list states: %v", err)
	}

	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}
	if states[0].EntityID != "note-1" {
		t.Fatalf("expected note-1, got %s", states[0].EntityID)
	}
}
