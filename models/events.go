// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import "time"

// EventKind names a session lifecycle notification emitted by the state
// machine and consumed by collaborators such as a presence/UI layer.
type EventKind string

const (
	EventSessionCreated   EventKind = "session_created"
	EventStatusUpdated    EventKind = "status_updated"
	EventProgressUpdated  EventKind = "progress_updated"
	EventPhaseChanged     EventKind = "phase_changed"
	EventSessionCompleted EventKind = "session_completed"
	EventSessionCancelled EventKind = "session_cancelled"
)

// SessionEvent is the payload delivered to an event sink. Fields beyond
// the identity triple are populated per kind: OldStatus/NewStatus for
// status updates, Progress for status and progress updates, Phase for
// phase changes.
type SessionEvent struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	DeviceID  string    `json:"device_id"`

	OldStatus SessionStatus `json:"old_status,omitempty"`
	NewStatus SessionStatus `json:"new_status,omitempty"`
	Phase     SyncPhase     `json:"phase,omitempty"`
	Progress  *SyncProgress `json:"progress,omitempty"`

	EmittedAt time.Time `json:"emitted_at"`
}
