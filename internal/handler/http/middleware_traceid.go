package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ndelyukov/go-note-sync/internal/utils"
)

const traceIDHeader = "X-Trace-ID"

// withTraceID attaches a trace identifier to every request. An inbound
// X-Trace-ID header is honored so that device-originated traces survive
// the hop; otherwise a fresh id is generated.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = utils.NewID()
		}

		l := h.logger.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(ctx))

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r)
	})
}
