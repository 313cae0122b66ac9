// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import "time"

// ConflictType classifies a detected divergence between server and client
// state for the same entity.
type ConflictType string

const (
	// ConflictContent: both sides independently changed overlapping fields
	// since the operation's base version.
	ConflictContent ConflictType = "content"

	// ConflictVersion: the operation's base version does not match the
	// ledger's current version (two writers diverged from the same base).
	ConflictVersion ConflictType = "version"

	// ConflictDelete: a non-delete mutation targets a tombstoned entity.
	ConflictDelete ConflictType = "delete"

	// ConflictParent: an update or delete targets an entity the server has
	// never seen.
	ConflictParent ConflictType = "parent"

	// ConflictUnique: applying the operation would violate a uniqueness
	// constraint, e.g. one review per date per user.
	ConflictUnique ConflictType = "unique"
)

// ResolutionStrategy names a way to settle a conflict.
type ResolutionStrategy string

const (
	ResolutionServerWins ResolutionStrategy = "server_wins"
	ResolutionClientWins ResolutionStrategy = "client_wins"
	ResolutionMerge      ResolutionStrategy = "merge"
	ResolutionManual     ResolutionStrategy = "manual"
	ResolutionLatestWins ResolutionStrategy = "latest_wins"
)

// Valid reports whether s is one of the known strategies.
func (s ResolutionStrategy) Valid() bool {
	switch s {
	case ResolutionServerWins, ResolutionClientWins, ResolutionMerge,
		ResolutionManual, ResolutionLatestWins:
		return true
	}
	return false
}

// ConflictSide is a snapshot of one side's view of the disputed entity at
// detection time.
type ConflictSide struct {
	Version    int64          `json:"version"`
	Data       map[string]any `json:"data,omitempty"`
	ModifiedBy int64          `json:"modified_by,omitempty"`
	ModifiedAt time.Time      `json:"modified_at"`
}

// Conflict is a first-class detected condition, not an error: the session
// that produced it cannot complete until every open conflict is resolved.
type Conflict struct {
	ID         string       `json:"id"`
	Type       ConflictType `json:"type"`
	EntityType EntityType   `json:"entity_type"`
	EntityID   string       `json:"entity_id"`

	// OperationID is the client operation whose processing detected the
	// conflict.
	OperationID string `json:"operation_id"`

	Server ConflictSide `json:"server"`
	Client ConflictSide `json:"client"`

	// ConflictFields is the intersection of field names changed on each
	// side. Populated for content conflicts only.
	ConflictFields []string `json:"conflict_fields,omitempty"`

	// SuggestedStrategy is a policy hint. Resolution always honors the
	// caller's chosen strategy, which may differ.
	SuggestedStrategy ResolutionStrategy `json:"suggested_strategy"`

	DetectedAt time.Time `json:"detected_at"`
}

// ConflictResolution is the caller's request to settle a conflict.
// ResolvedData is required for merge and manual strategies and ignored
// otherwise.
type ConflictResolution struct {
	ConflictID   string             `json:"conflict_id"`
	Strategy     ResolutionStrategy `json:"strategy"`
	ResolvedData map[string]any     `json:"resolved_data,omitempty"`
}

// ConflictResolutionResult reports the outcome of a resolution attempt.
// A failed attempt carries Error and leaves all server state untouched.
type ConflictResolutionResult struct {
	ConflictID   string         `json:"conflict_id"`
	Success      bool           `json:"success"`
	ResolvedData map[string]any `json:"resolved_data,omitempty"`
	NewVersion   int64          `json:"new_version,omitempty"`
	Error        string         `json:"error,omitempty"`
}
