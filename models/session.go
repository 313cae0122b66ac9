// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import (
	"math"
	"time"
)

// SessionStatus is the lifecycle state of a [SyncSession].
//
// Transitions are monotone: pending → running → {completed | failed},
// with running ⇄ paused for cooperative cancellation. A session never
// re-enters pending after leaving it.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// rank orders statuses along the monotone transition chain. Paused shares
// running's rank because the pair is mutually reachable.
func (s SessionStatus) rank() int {
	switch s {
	case SessionPending:
		return 0
	case SessionRunning, SessionPaused:
		return 1
	case SessionCompleted, SessionFailed:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next preserves
// status monotonicity.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	return next.rank() >= s.rank() && next != SessionPending
}

// SyncPhase names the stage a session is currently working through.
type SyncPhase string

const (
	PhaseInit               SyncPhase = "init"
	PhasePull               SyncPhase = "pull"
	PhasePush               SyncPhase = "push"
	PhaseConflictResolution SyncPhase = "conflict_resolution"
	PhaseCleanup            SyncPhase = "cleanup"
)

// SyncProgress tracks how far a session has advanced through its declared
// operation total. Percentage is derived, never set directly.
type SyncProgress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Percentage int `json:"percentage"`
}

// Recompute refreshes Percentage from Completed and Total, clamped
// to [0, 100]. A zero Total leaves the percentage at zero.
func (p *SyncProgress) Recompute() {
	if p.Total <= 0 {
		p.Percentage = 0
		return
	}

	pct := int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	p.Percentage = pct
}

// OperationRecordStatus is the lifecycle state of a [SyncOperationRecord].
type OperationRecordStatus string

const (
	RecordPending    OperationRecordStatus = "pending"
	RecordProcessing OperationRecordStatus = "processing"
	RecordCompleted  OperationRecordStatus = "completed"
	RecordFailed     OperationRecordStatus = "failed"
)

// SyncOperationRecord is the session-scoped echo of a processed
// [SyncOperation]: enough to audit and replay-guard the session without
// retaining full payloads in memory.
type SyncOperationRecord struct {
	ID          string                `json:"id"`
	Type        OperationType         `json:"type"`
	EntityType  EntityType            `json:"entity_type"`
	EntityID    string                `json:"entity_id,omitempty"`
	Status      OperationRecordStatus `json:"status"`
	Error       string                `json:"error,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// CounterSet accumulates per-entity-type mutation counts within a session.
type CounterSet struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// EntityCounters maps entity type to its mutation counters.
type EntityCounters map[EntityType]CounterSet

// Add bumps the counter matching the operation type. Reads do not count.
func (c EntityCounters) Add(entityType EntityType, opType OperationType) {
	set := c[entityType]
	switch opType {
	case OperationCreate:
		set.Created++
	case OperationUpdate:
		set.Updated++
	case OperationDelete:
		set.Deleted++
	default:
		return
	}
	c[entityType] = set
}

// SessionListSchemaVersion is embedded alongside the serialized operation
// and conflict lists inside the durable session record so the shapes can
// evolve without corrupting old rows.
const SessionListSchemaVersion = 1

// SyncSession is the unit of work for one synchronization exchange between
// a specific device and the server.
type SyncSession struct {
	ID       string `json:"id"`
	UserID   int64  `json:"user_id"`
	DeviceID string `json:"device_id"`

	Status SessionStatus `json:"status"`
	Phase  SyncPhase     `json:"phase"`

	Progress SyncProgress `json:"progress"`

	// CurrentOperation is a human-readable label of what the session is
	// doing right now, for progress UIs.
	CurrentOperation string `json:"current_operation,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Operations []SyncOperationRecord `json:"operations"`
	Conflicts  []Conflict            `json:"conflicts"`

	Counters EntityCounters `json:"counters"`
}

// OpenConflicts reports whether the session still has unresolved conflicts.
func (s *SyncSession) OpenConflicts() bool {
	return len(s.Conflicts) > 0
}

// FindOperationRecord returns a pointer into Operations for the given
// record id, or nil when absent.
func (s *SyncSession) FindOperationRecord(recordID string) *SyncOperationRecord {
	for i := range s.Operations {
		if s.Operations[i].ID == recordID {
			return &s.Operations[i]
		}
	}
	return nil
}

// SessionUpdate is a partial update merged into a session by the state
// machine. Nil fields are left untouched; slices and maps replace the
// existing value wholesale.
type SessionUpdate struct {
	Status           *SessionStatus        `json:"status,omitempty"`
	Phase            *SyncPhase            `json:"phase,omitempty"`
	Progress         *SyncProgress         `json:"progress,omitempty"`
	CurrentOperation *string               `json:"current_operation,omitempty"`
	ErrorMessage     *string               `json:"error_message,omitempty"`
	Operations       []SyncOperationRecord `json:"operations,omitempty"`
	Conflicts        []Conflict            `json:"conflicts,omitempty"`
	Counters         EntityCounters        `json:"counters,omitempty"`
}
