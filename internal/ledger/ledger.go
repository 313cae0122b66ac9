// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

// Package ledger tracks the authoritative version number of every synced
// entity. Each (entity type, entity id) pair owns a monotonically
// increasing counter together with the content hash and author of its
// latest write; deletions keep the row as a tombstone so later writes to
// the same entity can be recognized as delete conflicts.
package ledger

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/models"
)

var (
	// ErrEntityDeleted reports a write against a tombstoned entity.
	ErrEntityDeleted = errors.New("entity is deleted")
	// ErrEntityNotDeleted reports a resurrect of a live entity.
	ErrEntityNotDeleted = errors.New("entity is not deleted")
)

const stripeCount = 64

// stripe guards one shard of the write-through cache. Entities map to
// stripes by key hash, so writers to different entities almost never
// contend while two writers to the same entity always serialize.
type stripe struct {
	mu      sync.Mutex
	entries map[string]models.EntityVersion
}

// Ledger is the version authority. Reads and writes go through an
// in-process cache striped by entity key and are written through to the
// durable repository; when the durable write fails the in-memory entry
// stays authoritative and the failure is only logged, so a storage
// hiccup degrades durability rather than failing the sync.
type Ledger struct {
	versions store.EntityVersionRepository
	stripes  [stripeCount]*stripe
	logger   *logger.Logger
}

// NewLedger constructs a [Ledger] over the given durable repository.
func NewLedger(versions store.EntityVersionRepository, log *logger.Logger) *Ledger {
	l := &Ledger{
		versions: versions,
		logger:   log,
	}
	for i := range l.stripes {
		l.stripes[i] = &stripe{entries: make(map[string]models.EntityVersion)}
	}
	return l
}

func entityKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + "/" + entityID
}

func (l *Ledger) stripeFor(key string) *stripe {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.stripes[h.Sum32()%stripeCount]
}

// Current returns the latest recorded version of the entity, or
// [store.ErrEntityVersionNotFound] when the entity has never been synced.
func (l *Ledger) Current(ctx context.Context, entityType models.EntityType, entityID string) (models.EntityVersion, error) {
	if !entityType.Valid() {
		return models.EntityVersion{}, models.ErrUnknownEntityType
	}

	key := entityKey(entityType, entityID)
	s := l.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	return l.loadLocked(ctx, s, key, entityType, entityID)
}

// Advance records one new write: version+1 (or version 1 for an entity
// never seen before), fresh timestamp, the author's id, and the new
// content hash. Writes against a tombstone fail with [ErrEntityDeleted];
// those must go through Resurrect.
func (l *Ledger) Advance(ctx context.Context, entityType models.EntityType, entityID string, modifier int64, contentHash, clientToken string) (models.EntityVersion, error) {
	if !entityType.Valid() {
		return models.EntityVersion{}, models.ErrUnknownEntityType
	}

	key := entityKey(entityType, entityID)
	s := l.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := l.loadLocked(ctx, s, key, entityType, entityID)
	if err != nil && !errors.Is(err, store.ErrEntityVersionNotFound) {
		return models.EntityVersion{}, err
	}
	if err == nil && current.Deleted {
		return models.EntityVersion{}, ErrEntityDeleted
	}

	next := models.EntityVersion{
		EntityType:   entityType,
		EntityID:     entityID,
		Version:      current.Version + 1,
		ClientToken:  clientToken,
		LastModified: time.Now(),
		ModifiedBy:   modifier,
		ContentHash:  contentHash,
	}

	l.storeLocked(ctx, s, key, next)
	return next, nil
}

// Tombstone marks the entity deleted and bumps its version so that the
// deletion itself is an ordered event in the entity's history. Deleting
// an already-deleted entity is a no-op returning the existing tombstone.
func (l *Ledger) Tombstone(ctx context.Context, entityType models.EntityType, entityID string, modifier int64) (models.EntityVersion, error) {
	if !entityType.Valid() {
		return models.EntityVersion{}, models.ErrUnknownEntityType
	}

	key := entityKey(entityType, entityID)
	s := l.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := l.loadLocked(ctx, s, key, entityType, entityID)
	if err != nil {
		return models.EntityVersion{}, err
	}
	if current.Deleted {
		return current, nil
	}

	now := time.Now()
	next := current
	next.Version++
	next.LastModified = now
	next.ModifiedBy = modifier
	next.Deleted = true
	next.DeletedAt = &now

	l.storeLocked(ctx, s, key, next)
	return next, nil
}

// Resurrect reverses a tombstone: the entity becomes live again at
// version+1 with the provided content hash. Resurrecting a live entity
// fails with [ErrEntityNotDeleted].
func (l *Ledger) Resurrect(ctx context.Context, entityType models.EntityType, entityID string, modifier int64, contentHash string) (models.EntityVersion, error) {
	if !entityType.Valid() {
		return models.EntityVersion{}, models.ErrUnknownEntityType
	}

	key := entityKey(entityType, entityID)
	s := l.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := l.loadLocked(ctx, s, key, entityType, entityID)
	if err != nil {
		return models.EntityVersion{}, err
	}
	if !current.Deleted {
		return models.EntityVersion{}, ErrEntityNotDeleted
	}

	next := current
	next.Version++
	next.LastModified = time.Now()
	next.ModifiedBy = modifier
	next.ContentHash = contentHash
	next.Deleted = false
	next.DeletedAt = nil

	l.storeLocked(ctx, s, key, next)
	return next, nil
}

// loadLocked reads the entry from the stripe cache, falling back to the
// durable repository on a miss. Caller holds the stripe mutex.
func (l *Ledger) loadLocked(ctx context.Context, s *stripe, key string, entityType models.EntityType, entityID string) (models.EntityVersion, error) {
	if entry, ok := s.entries[key]; ok {
		return entry, nil
	}

	entry, err := l.versions.Get(ctx, entityType, entityID)
	if err != nil {
		return models.EntityVersion{}, err
	}

	s.entries[key] = entry
	return entry, nil
}

// storeLocked updates the cache and writes through to the repository.
// Caller holds the stripe mutex.
func (l *Ledger) storeLocked(ctx context.Context, s *stripe, key string, entry models.EntityVersion) {
	s.entries[key] = entry

	if err := l.versions.Upsert(ctx, entry); err != nil {
		l.logger.Err(err).
			Str("func", "Ledger.storeLocked").
			Str("entity_type", string(entry.EntityType)).
			Str("entity_id", entry.EntityID).
			Int64("version", entry.Version).
			Msg("durable ledger write failed, in-memory entry stays authoritative")
	}
}
