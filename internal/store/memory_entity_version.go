// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package store

import (
	"context"
	"sync"
	"time"

	"github.com/ndelyukov/go-note-sync/models"
)

// MemoryEntityVersionRepository is an in-process implementation of
// [EntityVersionRepository], used when the server runs with persistence
// disabled. Ledger state then lives only for the lifetime of the process.
type MemoryEntityVersionRepository struct {
	mu   sync.RWMutex
	rows map[string]models.EntityVersion
}

func NewMemoryEntityVersionRepository() *MemoryEntityVersionRepository {
	return &MemoryEntityVersionRepository{
		rows: make(map[string]models.EntityVersion),
	}
}

func memoryVersionKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + "/" + entityID
}

func (r *MemoryEntityVersionRepository) Get(_ context.Context, entityType models.EntityType, entityID string) (models.EntityVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[memoryVersionKey(entityType, entityID)]
	if !ok {
		return models.EntityVersion{}, ErrEntityVersionNotFound
	}
	return row, nil
}

func (r *MemoryEntityVersionRepository) Upsert(_ context.Context, version models.EntityVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[memoryVersionKey(version.EntityType, version.EntityID)] = version
	return nil
}

func (r *MemoryEntityVersionRepository) ListStates(_ context.Context, userID int64, entityTypes []models.EntityType, since *time.Time) ([]models.EntityVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := func(t models.EntityType) bool {
		if len(entityTypes) == 0 {
			return true
		}
		for _, entityType := range entityTypes {
			if entityType == t {
				return true
			}
		}
		return false
	}

	states := make([]models.EntityVersion, 0)
	for _, row := range r.rows {
		if row.ModifiedBy != userID || !wanted(row.EntityType) {
			continue
		}
		if since != nil && !row.LastModified.After(*since) {
			continue
		}
		states = append(states, row)
	}

	return states, nil
}
