// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import "time"

// ClientSyncState is the per-device baseline produced after every session.
// The device stores it locally and presents it on its next sync attempt so
// the server can detect protocol drift and stale cursors.
type ClientSyncState struct {
	ClientID string `json:"client_id"`

	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`

	// ServerProtocolVersion is the protocol revision the server spoke
	// during the last successful exchange.
	ServerProtocolVersion ProtocolVersion `json:"server_protocol_version"`

	// PendingOperations is the number of operations the device reported
	// as still queued locally when the session closed.
	PendingOperations int `json:"pending_operations"`

	LastSessionID string `json:"last_session_id,omitempty"`
}
