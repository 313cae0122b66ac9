// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import (
	"errors"
	"time"
)

// OperationType discriminates the variants of [SyncOperation].
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
	OperationRead   OperationType = "read"
)

// ReadFilter narrows an incremental pull. A nil Since means "everything".
type ReadFilter struct {
	// EntityTypes restricts the pull to the listed types; empty means all.
	EntityTypes []EntityType `json:"entity_types,omitempty"`

	// Since is the incremental cursor: only entities modified strictly
	// after this instant are returned.
	Since *time.Time `json:"since,omitempty"`
}

// SyncOperation is one client-submitted action inside a sync batch.
//
// The struct is a tagged variant discriminated by Type: the optional fields
// that apply to each kind are enforced by [SyncOperation.Validate], so a
// loosely populated record cannot masquerade as a different kind.
type SyncOperation struct {
	ID         string        `json:"id"`
	Type       OperationType `json:"type"`
	EntityType EntityType    `json:"entity_type"`

	// EntityID is empty for create operations: the server assigns the
	// durable identifier and echoes it back against TempID.
	EntityID string `json:"entity_id,omitempty"`

	// TempID is the client-side provisional identifier of a record that
	// has never been synced.
	TempID string `json:"temp_id,omitempty"`

	ClientID  string    `json:"client_id"`
	Timestamp time.Time `json:"timestamp"`

	// BaseVersion is the entity version the client last saw; the server's
	// optimistic-concurrency check compares it against the ledger.
	// Zero for create.
	BaseVersion int64 `json:"base_version"`

	// ClientToken is the client-assigned version token for this write,
	// carried into the ledger on acceptance.
	ClientToken string `json:"client_token,omitempty"`

	// DataHash is the content hash of the post-image the client holds.
	DataHash string `json:"data_hash,omitempty"`

	// Changes lists field name → new value for update operations.
	Changes map[string]any `json:"changes,omitempty"`

	// Data is the full post-image (create always, update optionally).
	// Payloads are opaque to the sync subsystem.
	Data map[string]any `json:"data,omitempty"`

	// ExpectedVersion is the version a delete expects to remove.
	ExpectedVersion int64 `json:"expected_version,omitempty"`

	// Filter applies to read operations only.
	Filter *ReadFilter `json:"filter,omitempty"`
}

// Validation errors returned by [SyncOperation.Validate].
var (
	ErrOperationIDMissing     = errors.New("operation id is required")
	ErrUnknownOperationType   = errors.New("unknown operation type")
	ErrUnknownEntityType      = errors.New("unknown entity type")
	ErrEntityIDMissing        = errors.New("entity id is required for this operation type")
	ErrCreateDataMissing      = errors.New("create operation requires a full post-image")
	ErrCreateTempIDMissing    = errors.New("create operation requires a temp id")
	ErrUpdateChangesMissing   = errors.New("update operation requires a changed-fields map")
	ErrExpectedVersionMissing = errors.New("delete operation requires the expected version")
)

// Validate checks the per-kind required fields of the variant.
func (op SyncOperation) Validate() error {
	if op.ID == "" {
		return ErrOperationIDMissing
	}
	if !op.EntityType.Valid() {
		return ErrUnknownEntityType
	}

	switch op.Type {
	case OperationCreate:
		if len(op.Data) == 0 {
			return ErrCreateDataMissing
		}
		if op.TempID == "" {
			return ErrCreateTempIDMissing
		}
		return nil

	case OperationUpdate:
		if op.EntityID == "" {
			return ErrEntityIDMissing
		}
		if len(op.Changes) == 0 {
			return ErrUpdateChangesMissing
		}
		return nil

	case OperationDelete:
		if op.EntityID == "" {
			return ErrEntityIDMissing
		}
		if op.ExpectedVersion <= 0 {
			return ErrExpectedVersionMissing
		}
		return nil

	case OperationRead:
		return nil

	default:
		return ErrUnknownOperationType
	}
}

// Mutates reports whether the operation writes server state.
func (op SyncOperation) Mutates() bool {
	return op.Type == OperationCreate || op.Type == OperationUpdate || op.Type == OperationDelete
}

// ChangedFields returns the names of the fields an update touches.
// Create and delete return nil.
func (op SyncOperation) ChangedFields() []string {
	if op.Type != OperationUpdate || len(op.Changes) == 0 {
		return nil
	}

	fields := make([]string, 0, len(op.Changes))
	for name := range op.Changes {
		fields = append(fields, name)
	}
	return fields
}
