// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import "time"

// SyncStatistics is the cumulative per-user synchronization record.
//
// AverageDuration is a running moving average over successful sessions,
// not a histogram: each completion folds its duration in as
// (prevAvg*prevCount + thisDuration) / (prevCount + 1).
type SyncStatistics struct {
	UserID int64 `json:"user_id"`

	TotalSessions      int64 `json:"total_sessions"`
	SuccessfulSessions int64 `json:"successful_sessions"`
	FailedSessions     int64 `json:"failed_sessions"`

	// EntitiesSynced counts accepted mutations by entity type across all
	// successful sessions.
	EntitiesSynced map[EntityType]int64 `json:"entities_synced"`

	BytesTransferred int64 `json:"bytes_transferred"`

	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`

	AverageDuration time.Duration `json:"average_duration"`
}

// NewSyncStatistics returns the lazily created zeroed record for a user
// with no prior history.
func NewSyncStatistics(userID int64) *SyncStatistics {
	return &SyncStatistics{
		UserID:         userID,
		EntitiesSynced: make(map[EntityType]int64),
	}
}
