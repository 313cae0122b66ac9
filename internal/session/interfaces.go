// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package session

import (
	"context"

	"github.com/ndelyukov/go-note-sync/models"
)

// EventSink consumes session lifecycle notifications. Implementations
// must not block: the state machine publishes while holding the session
// lock.
type EventSink interface {
	Publish(ctx context.Context, event models.SessionEvent)
}
