// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package conflict

import (
	"context"
	"errors"

	"github.com/ndelyukov/go-note-sync/internal/ledger"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

var (
	// ErrUnknownStrategy reports a resolution naming no known strategy.
	ErrUnknownStrategy = errors.New("unknown resolution strategy")
	// ErrResolvedDataRequired reports a merge or manual resolution that
	// arrived without a resolved payload.
	ErrResolvedDataRequired = errors.New("resolved data is required for merge and manual strategies")
)

// Resolver settles conflicts by writing the winning side through the
// version ledger. The caller's strategy is always honored, even when it
// differs from the detector's suggestion.
type Resolver struct {
	ledger *ledger.Ledger
	logger *logger.Logger
}

// NewResolver constructs a [Resolver] over the given ledger.
func NewResolver(l *ledger.Ledger, log *logger.Logger) *Resolver {
	return &Resolver{
		ledger: l,
		logger: log,
	}
}

// Resolve applies the requested strategy to the conflict and reports the
// outcome. A failed attempt leaves the ledger untouched and carries the
// failure in the result rather than an error return: resolution outcomes
// are data the session records, not faults.
func (r *Resolver) Resolve(ctx context.Context, conflict models.Conflict, resolution models.ConflictResolution) models.ConflictResolutionResult {
	log := logger.FromContext(ctx)

	result := models.ConflictResolutionResult{ConflictID: conflict.ID}

	if !resolution.Strategy.Valid() {
		result.Error = ErrUnknownStrategy.Error()
		return result
	}

	strategy := resolution.Strategy
	if strategy == models.ResolutionLatestWins {
		if conflict.Client.ModifiedAt.After(conflict.Server.ModifiedAt) {
			strategy = models.ResolutionClientWins
		} else {
			strategy = models.ResolutionServerWins
		}
	}

	switch strategy {
	case models.ResolutionServerWins:
		result.Success = true
		result.ResolvedData = conflict.Server.Data
		result.NewVersion = conflict.Server.Version

	case models.ResolutionClientWins:
		r.applyData(ctx, conflict, conflict.Client.Data, &result)

	case models.ResolutionMerge, models.ResolutionManual:
		if len(resolution.ResolvedData) == 0 {
			result.Error = ErrResolvedDataRequired.Error()
			return result
		}
		r.applyData(ctx, conflict, resolution.ResolvedData, &result)
	}

	if result.Success {
		log.Info().
			Str("func", "Resolver.Resolve").
			Str("conflict_id", conflict.ID).
			Str("strategy", string(resolution.Strategy)).
			Int64("new_version", result.NewVersion).
			Msg("conflict resolved")
	}

	return result
}

// applyData writes the winning payload through the ledger, resurrecting
// the entity first if it was tombstoned in the meantime.
func (r *Resolver) applyData(ctx context.Context, conflict models.Conflict, data map[string]any, result *models.ConflictResolutionResult) {
	hash := utils.HashPayload(data)

	version, err := r.ledger.Advance(ctx, conflict.EntityType, conflict.EntityID, conflict.Client.ModifiedBy, hash, "")
	if errors.Is(err, ledger.ErrEntityDeleted) {
		version, err = r.ledger.Resurrect(ctx, conflict.EntityType, conflict.EntityID, conflict.Client.ModifiedBy, hash)
	}
	if err != nil {
		result.Error = err.Error()
		return
	}

	result.Success = true
	result.ResolvedData = data
	result.NewVersion = version.Version
}
