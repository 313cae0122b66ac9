// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package http

import (
	"net/http"
	"time"

	"github.com/ndelyukov/go-note-sync/internal/logger"
)

// withLogging writes one access-log line per request through the
// request-scoped logger, so the line carries the trace id set further up
// the chain. Push batches dominate this server's traffic, so the request
// body size is logged next to the response size.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Handlers that never touch the writer still answer 200.
		lw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		logger.FromRequest(r).Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", lw.status).
			Int64("bytes_in", r.ContentLength).
			Int("bytes_out", lw.size).
			Dur("duration", time.Since(start)).
			Send()
	})
}
