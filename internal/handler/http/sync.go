package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.pull").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	pullRequest, err := pullRequestFromQuery(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("invalid pull query parameters")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.Pull(ctx, userID, pullRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("error getting entity states")
		http.Error(w, "error getting entity states", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// pullRequestFromQuery parses the pull cursor from query parameters:
// "since" as RFC 3339 and "types" as a comma-separated entity type list.
func pullRequestFromQuery(r *http.Request) (models.PullRequest, error) {
	var pullRequest models.PullRequest

	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		since, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			return models.PullRequest{}, err
		}
		pullRequest.Since = &since
	}

	if typesParam := r.URL.Query().Get("types"); typesParam != "" {
		for _, name := range strings.Split(typesParam, ",") {
			entityType := models.EntityType(strings.TrimSpace(name))
			if !entityType.Valid() {
				return models.PullRequest{}, models.ErrUnknownEntityType
			}
			pullRequest.EntityTypes = append(pullRequest.EntityTypes, entityType)
		}
	}

	return pullRequest, nil
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.resolveConflict").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	conflictID := chi.URLParam(r, "id")

	var resolution models.ConflictResolution
	if err := json.NewDecoder(r.Body).Decode(&resolution); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	result, err := h.services.SyncService.ResolveConflict(ctx, userID, conflictID, resolution)
	if err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("error resolving conflict")
		http.Error(w, "error resolving conflict", statusFromError(err))
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}
