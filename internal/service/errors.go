// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package service

import "errors"

var (
	// ErrSessionNotActive reports a push against a session that is
	// paused or already terminal.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrConflictNotFound reports a resolution naming a conflict id that
	// no active session of the caller holds.
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrHistoryUnavailable reports a history or purge request on a
	// server running without durable persistence.
	ErrHistoryUnavailable = errors.New("session history requires durable persistence")
)
