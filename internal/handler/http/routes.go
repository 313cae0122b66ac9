package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/version", h.getServerVersion)
	})

	// routes with authorization
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/sync/session", h.createSession)
		r.Get("/api/sync/session/{id}", h.getSession)
		r.Post("/api/sync/session/{id}/push", h.pushBatch)
		r.Post("/api/sync/session/{id}/cancel", h.cancelSession)
		r.Post("/api/sync/session/{id}/resume", h.resumeSession)

		r.Post("/api/sync/conflicts/{id}/resolve", h.resolveConflict)

		r.Get("/api/sync/pull", h.pull)
		r.Get("/api/sync/history", h.history)
		r.Delete("/api/sync/history", h.purgeHistory)
		r.Get("/api/sync/stats", h.statistics)
	})

	return router
}
