// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package session

import (
	"context"

	"github.com/ndelyukov/go-note-sync/models"
)

// NopSink discards every event. Used when no collaborator subscribes.
type NopSink struct{}

// Publish implements [EventSink] by doing nothing.
func (NopSink) Publish(context.Context, models.SessionEvent) {}

// FanoutSink delivers every event to each wrapped sink in order.
type FanoutSink struct {
	sinks []EventSink
}

// NewFanoutSink constructs a [FanoutSink] over the given sinks.
func NewFanoutSink(sinks ...EventSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

// Publish implements [EventSink].
func (f *FanoutSink) Publish(ctx context.Context, event models.SessionEvent) {
	for _, sink := range f.sinks {
		sink.Publish(ctx, event)
	}
}
