// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package http

import (
	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/service"
)

// Handler carries the service layer and the application settings the
// transport needs: the token verification key and the advertised version.
type Handler struct {
	services *service.Services
	cfg      config.App

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.App, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		cfg:      cfg,
		logger:   logger,
	}
}
