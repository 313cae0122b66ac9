// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndelyukov/go-note-sync/models"
)

func updateOp(entityID string, baseVersion int64, changes map[string]any) models.SyncOperation {
	return models.SyncOperation{
		ID:          "op-1",
		Type:        models.OperationUpdate,
		EntityType:  models.EntityNote,
		EntityID:    entityID,
		ClientID:    "device-a",
		Timestamp:   time.Now(),
		BaseVersion: baseVersion,
		Changes:     changes,
	}
}

func serverVersion(version int64) *models.EntityVersion {
	return &models.EntityVersion{
		EntityType:   models.EntityNote,
		EntityID:     "note-1",
		Version:      version,
		LastModified: time.Now().Add(-time.Minute),
		ModifiedBy:   2,
	}
}

func TestDetect_CleanOperation(t *testing.T) {
	d := NewDetector()

	got := d.Detect(Input{
		Operation: updateOp("note-1", 4, map[string]any{"title": "x"}),
		Server:    serverVersion(4),
	})
	assert.Nil(t, got)
}

func TestDetect_ReadNeverConflicts(t *testing.T) {
	d := NewDetector()

	got := d.Detect(Input{
		Operation: models.SyncOperation{
			ID:   "op-r",
			Type: models.OperationRead,
		},
		UniqueViolation: true,
	})
	assert.Nil(t, got)
}

func TestDetect_ParentConflict(t *testing.T) {
	d := NewDetector()

	got := d.Detect(Input{
		Operation: updateOp("orphan", 1, map[string]any{"title": "x"}),
		Server:    nil,
	})
	require.NotNil(t, got)
	assert.Equal(t, models.ConflictParent, got.Type)
	assert.Equal(t, models.ResolutionClientWins, got.SuggestedStrategy)
	assert.Equal(t, "op-1", got.OperationID)
}

func TestDetect_VersionConflict(t *testing.T) {
	d := NewDetector()

	// Base version 3, server is already at 4, no overlapping fields known.
	got := d.Detect(Input{
		Operation: updateOp("note-1", 3, map[string]any{"title": "x"}),
		Server:    serverVersion(4),
	})
	require.NotNil(t, got)
	assert.Equal(t, models.ConflictVersion, got.Type)
	assert.Equal(t, models.ResolutionLatestWins, got.SuggestedStrategy)
	assert.Equal(t, int64(4), got.Server.Version)
	assert.Equal(t, int64(3), got.Client.Version)
	assert.Empty(t, got.ConflictFields)
}

func TestDetect_ContentConflictWithFieldIntersection(t *testing.T) {
	d := NewDetector()

	got := d.Detect(Input{
		Operation: updateOp("note-1", 3, map[string]any{
			"title": "client title",
			"body":  "client body",
			"tags":  []string{"a"},
		}),
		Server:              serverVersion(4),
		ServerChangedFields: []string{"title", "body", "color"},
	})
	require.NotNil(t, got)
	assert.Equal(t, models.ConflictContent, got.Type)
	assert.Equal(t, []string{"body", "title"}, got.ConflictFields)
	assert.Equal(t, models.ResolutionLatestWins, got.SuggestedStrategy)
}

func TestDetect_DeleteConflictOnTombstone(t *testing.T) {
	d := NewDetector()

	server := serverVersion(5)
	server.Deleted = true

	got := d.Detect(Input{
		Operation: updateOp("note-1", 5, map[string]any{"title": "x"}),
		Server:    server,
	})
	require.NotNil(t, got)
	assert.Equal(t, models.ConflictDelete, got.Type)
	assert.Equal(t, models.ResolutionManual, got.SuggestedStrategy)
}

func TestDetect_DeleteOfTombstoneIsNotAConflict(t *testing.T) {
	d := NewDetector()

	server := serverVersion(5)
	server.Deleted = true

	got := d.Detect(Input{
		Operation: models.SyncOperation{
			ID:              "op-d",
			Type:            models.OperationDelete,
			EntityType:      models.EntityNote,
			EntityID:        "note-1",
			ExpectedVersion: 5,
		},
		Server: server,
	})
	assert.Nil(t, got)
}

func TestDetect_DeleteVersionMismatch(t *testing.T) {
	d := NewDetector()

	got := d.Detect(Input{
		Operation: models.SyncOperation{
			ID:              "op-d",
			Type:            models.OperationDelete,
			EntityType:      models.EntityNote,
			EntityID:        "note-1",
			ExpectedVersion: 3,
		},
		Server: serverVersion(4),
	})
	require.NotNil(t, got)
	assert.Equal(t, models.ConflictVersion, got.Type)
}

func TestDetect_UniqueConflict(t *testing.T) {
	d := NewDetector()

	got := d.Detect(Input{
		Operation: models.SyncOperation{
			ID:         "op-c",
			Type:       models.OperationCreate,
			EntityType: models.EntityReview,
			TempID:     "tmp-1",
			Data:       map[string]any{"date": "2026-08-29"},
		},
		UniqueViolation: true,
	})
	require.NotNil(t, got)
	assert.Equal(t, models.ConflictUnique, got.Type)
	assert.Equal(t, models.ResolutionServerWins, got.SuggestedStrategy)
}
