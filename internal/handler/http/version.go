package http

import (
	"net/http"

	"github.com/ndelyukov/go-note-sync/internal/utils"
	"github.com/ndelyukov/go-note-sync/models"
)

// versionResponse reports the server build version and the sync protocol
// revision the server speaks, so devices can detect incompatibility
// before opening a session.
type versionResponse struct {
	Version         string                 `json:"version"`
	ProtocolVersion models.ProtocolVersion `json:"protocol_version"`
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, versionResponse{
		Version:         h.cfg.Version,
		ProtocolVersion: models.CurrentProtocolVersion,
	}, http.StatusOK)
}
