package models

import "time"

// CreateSessionRequest opens a new sync session for the calling user's
// device. TotalOperations is the number of operations the device intends
// to push, used to size the progress record.
type CreateSessionRequest struct {
	DeviceID        string `json:"device_id"`
	TotalOperations int    `json:"total_operations"`
}

// CreateSessionResponse echoes the allocated session and the protocol
// revision the server speaks.
type CreateSessionResponse struct {
	SessionID       string          `json:"session_id"`
	ProtocolVersion ProtocolVersion `json:"protocol_version"`
}

// PushRequest carries one batch of operations for an open session.
type PushRequest struct {
	ClientID   string          `json:"client_id"`
	Operations []SyncOperation `json:"operations"`

	// PendingOperations is how many operations remain queued on the
	// device after this batch, echoed into the client's next baseline.
	PendingOperations int `json:"pending_operations"`
}

// PushResponse reports the per-batch outcome: how many operations were
// accepted or failed, which conflicts were opened, and the fresh client
// baseline when the session reached a terminal state.
type PushResponse struct {
	SessionID string     `json:"session_id"`
	Accepted  int        `json:"accepted"`
	Failed    int        `json:"failed"`
	Conflicts []Conflict `json:"conflicts,omitempty"`

	// TempIDMap maps client temp ids to server-assigned entity ids for
	// creates accepted in this batch.
	TempIDMap map[string]string `json:"temp_id_map,omitempty"`

	ClientState *ClientSyncState `json:"client_state,omitempty"`
}

// PullRequest asks for entity states modified since the cursor.
type PullRequest struct {
	EntityTypes []EntityType `json:"entity_types,omitempty"`
	Since       *time.Time   `json:"since,omitempty"`
}

// PullResponse carries the matching ledger states.
type PullResponse struct {
	States []EntityVersion `json:"states"`
	Length int             `json:"length"`
}

// SessionHistoryPage is one page of terminal sessions for a user.
type SessionHistoryPage struct {
	Sessions []SyncSession `json:"sessions"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
	Total    int64         `json:"total"`
}
