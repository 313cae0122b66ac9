// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import "time"

// EntityType names a category of synchronizable record.
type EntityType string

const (
	EntityNote   EntityType = "note"
	EntityFolder EntityType = "folder"
	EntityReview EntityType = "review"
	EntityUser   EntityType = "user"
)

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityNote, EntityFolder, EntityReview, EntityUser:
		return true
	}
	return false
}

// EntityVersion is the per-record bookkeeping the server keeps for every
// synchronizable entity. Version increases by exactly one on every accepted
// mutation; ContentHash allows cheap change detection without comparing
// payloads. A deleted entity keeps its row as a tombstone so that later
// writes against it can be flagged as delete conflicts.
type EntityVersion struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`

	// Version is the monotonically increasing optimistic-concurrency
	// counter. The first accepted write produces version 1.
	Version int64 `json:"version"`

	// ClientToken is the client-assigned version token of the write that
	// produced this version. It disambiguates offline edits that share a
	// base version.
	ClientToken string `json:"client_token,omitempty"`

	LastModified time.Time `json:"last_modified"`
	ModifiedBy   int64     `json:"modified_by"`
	ContentHash  string    `json:"content_hash"`

	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
