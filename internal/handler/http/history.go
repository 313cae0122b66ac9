package http

import (
	"net/http"
	"strconv"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/utils"
)

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.history").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	page := intQueryParam(r, "page", 1)
	limit := intQueryParam(r, "limit", 20)

	historyPage, err := h.services.SyncService.History(ctx, userID, page, limit)
	if err != nil {
		log.Err(err).Str("func", "*Handler.history").Msg("error getting session history")
		http.Error(w, "error getting session history", statusFromError(err))
		return
	}

	utils.WriteJSON(w, historyPage, http.StatusOK)
}

func (h *Handler) purgeHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.purgeHistory").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	days := intQueryParam(r, "days", 0)

	removed, err := h.services.SyncService.PurgeHistory(ctx, userID, days)
	if err != nil {
		log.Err(err).Str("func", "*Handler.purgeHistory").Msg("error purging session history")
		http.Error(w, "error purging session history", statusFromError(err))
		return
	}

	utils.WriteJSON(w, map[string]int64{"removed": removed}, http.StatusOK)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.statistics").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	stats, err := h.services.SyncService.Statistics(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.statistics").Msg("error getting sync statistics")
		http.Error(w, "error getting sync statistics", statusFromError(err))
		return
	}

	utils.WriteJSON(w, stats, http.StatusOK)
}

// intQueryParam returns the named query parameter as an int, falling back
// to def when the parameter is absent or not a number.
func intQueryParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
