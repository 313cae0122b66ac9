// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.createSession").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var createRequest models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&createRequest); err != nil {
		log.Err(err).Str("func", "*Handler.createSession").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.CreateSession(ctx, userID, createRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createSession").Msg("error creating sync session")
		http.Error(w, "error creating sync session", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusCreated)
}

func (h *Handler) pushBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.pushBatch").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "id")

	var pushRequest models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&pushRequest); err != nil {
		log.Err(err).Str("func", "*Handler.pushBatch").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.ProcessBatch(ctx, userID, sessionID, pushRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pushBatch").Msg("error processing operation batch")
		http.Error(w, "error processing operation batch", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.getSession").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	session, err := h.services.SyncService.GetSession(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		log.Err(err).Str("func", "*Handler.getSession").Msg("error getting sync session")
		http.Error(w, "error getting sync session", statusFromError(err))
		return
	}

	utils.WriteJSON(w, session, http.StatusOK)
}

func (h *Handler) cancelSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.cancelSession").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	if err := h.services.SyncService.CancelSession(ctx, userID, chi.URLParam(r, "id")); err != nil {
		log.Err(err).Str("func", "*Handler.cancelSession").Msg("error cancelling sync session")
		http.Error(w, "error cancelling sync session", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resumeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.resumeSession").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	if err := h.services.SyncService.ResumeSession(ctx, userID, chi.URLParam(r, "id")); err != nil {
		log.Err(err).Str("func", "*Handler.resumeSession").Msg("error resuming sync session")
		http.Error(w, "error resuming sync session", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
