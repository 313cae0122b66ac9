// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

// Package conflict classifies divergent writes to the same entity and
// settles them with a caller-chosen resolution strategy.
package conflict

import (
	"sort"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

// Input is everything the detector needs to judge one operation. UserID is
// the authenticated author of the operation; Server is nil when the ledger
// has never seen the entity; ServerChangedFields lists the fields the
// server side changed since the operation's base version; UniqueViolation
// is the caller's uniqueness probe result.
type Input struct {
	Operation           models.SyncOperation
	UserID              int64
	Server              *models.EntityVersion
	ServerData          map[string]any
	ServerChangedFields []string
	UniqueViolation     bool
}

// Detector is a pure classifier: it never touches storage and never
// mutates the ledger.
type Detector struct{}

// NewDetector constructs a [Detector].
func NewDetector() *Detector {
	return &Detector{}
}

// Detect classifies the operation against the server's view of its target
// entity. A nil return means the operation applies cleanly.
//
// Classification order, most specific first: a non-delete mutation on a
// tombstone is a delete conflict; an update/delete on an unknown entity is
// a parent conflict; a base-version mismatch is a content conflict when
// the two sides changed overlapping fields and a version conflict
// otherwise; last, the uniqueness probe.
func (d *Detector) Detect(in Input) *models.Conflict {
	op := in.Operation

	if !op.Mutates() {
		return nil
	}

	if op.Type != models.OperationCreate && in.Server == nil {
		return d.build(models.ConflictParent, in, nil)
	}

	if in.Server != nil && in.Server.Deleted && op.Type != models.OperationDelete {
		return d.build(models.ConflictDelete, in, nil)
	}

	if in.Server != nil && op.Type != models.OperationCreate {
		base := op.BaseVersion
		if op.Type == models.OperationDelete && op.ExpectedVersion > 0 {
			base = op.ExpectedVersion
		}
		if base != in.Server.Version {
			fields := intersectFields(op.ChangedFields(), in.ServerChangedFields)
			if len(fields) > 0 {
				return d.build(models.ConflictContent, in, fields)
			}
			return d.build(models.ConflictVersion, in, nil)
		}
	}

	if in.UniqueViolation {
		return d.build(models.ConflictUnique, in, nil)
	}

	return nil
}

func (d *Detector) build(conflictType models.ConflictType, in Input, fields []string) *models.Conflict {
	op := in.Operation

	conflict := &models.Conflict{
		ID:                utils.NewID(),
		Type:              conflictType,
		EntityType:        op.EntityType,
		EntityID:          op.EntityID,
		OperationID:       op.ID,
		ConflictFields:    fields,
		SuggestedStrategy: suggestStrategy(conflictType),
		DetectedAt:        time.Now(),
		Client: models.ConflictSide{
			Version:    op.BaseVersion,
			Data:       clientData(op),
			ModifiedBy: in.UserID,
			ModifiedAt: op.Timestamp,
		},
	}

	if in.Server != nil {
		conflict.Server = models.ConflictSide{
			Version:    in.Server.Version,
			Data:       in.ServerData,
			ModifiedBy: in.Server.ModifiedBy,
			ModifiedAt: in.Server.LastModified,
		}
	}

	return conflict
}

// suggestStrategy is the policy hint attached to every detected conflict:
// concurrent edits usually settle by recency, a delete disagreement needs
// a human, an orphaned child belongs to the client (resubmit as create),
// and uniqueness is the server's rule to keep.
func suggestStrategy(conflictType models.ConflictType) models.ResolutionStrategy {
	switch conflictType {
	case models.ConflictDelete:
		return models.ResolutionManual
	case models.ConflictParent:
		return models.ResolutionClientWins
	case models.ConflictUnique:
		return models.ResolutionServerWins
	default:
		return models.ResolutionLatestWins
	}
}

func clientData(op models.SyncOperation) map[string]any {
	if len(op.Data) > 0 {
		return op.Data
	}
	if len(op.Changes) > 0 {
		return op.Changes
	}
	return nil
}

func intersectFields(client, server []string) []string {
	if len(client) == 0 || len(server) == 0 {
		return nil
	}

	onServer := make(map[string]bool, len(server))
	for _, f := range server {
		onServer[f] = true
	}

	var fields []string
	for _, f := range client {
		if onServer[f] {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return fields
}
