// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package service

import (
	"github.com/ndelyukov/go-note-sync/internal/conflict"
	"github.com/ndelyukov/go-note-sync/internal/ledger"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/session"
	"github.com/ndelyukov/go-note-sync/internal/store"
)

// Services bundles the service layer handed to the transport.
type Services struct {
	SyncService SyncService
}

// Deps are the collaborators the service layer is built from. Sessions
// and Cleanup are nil on a memory-only deployment.
type Deps struct {
	Manager  *session.Manager
	Ledger   *ledger.Ledger
	Versions store.EntityVersionRepository
	Sessions store.SessionRepository
	Cleanup  *session.CleanupWorker
	Stats    *session.StatsAggregator
}

// NewServices wires the service layer.
func NewServices(deps Deps, log *logger.Logger) *Services {
	detector := conflict.NewDetector()
	resolver := conflict.NewResolver(deps.Ledger, log)

	return &Services{
		SyncService: NewSyncService(
			deps.Manager,
			deps.Ledger,
			detector,
			resolver,
			deps.Versions,
			deps.Sessions,
			deps.Cleanup,
			deps.Stats,
			log,
		),
	}
}
