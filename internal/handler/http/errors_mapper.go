package http

import (
	"errors"
	"net/http"

	"github.com/ndelyukov/go-note-sync/internal/service"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/models"
)

var errorStatusMap = map[error]int{
	service.ErrSessionNotActive:   http.StatusConflict,
	service.ErrConflictNotFound:   http.StatusNotFound,
	service.ErrHistoryUnavailable: http.StatusServiceUnavailable,

	models.ErrUnknownEntityType:    http.StatusBadRequest,
	models.ErrUnknownOperationType: http.StatusBadRequest,

	store.ErrSessionNotFound:         http.StatusNotFound,
	store.ErrOperationRecordNotFound: http.StatusNotFound,
	store.ErrEntityVersionNotFound:   http.StatusNotFound,
	store.ErrStatisticsNotFound:      http.StatusNotFound,
	store.ErrDuplicateEntityVersion:  http.StatusConflict,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
	store.ErrSerializingRecord:    http.StatusInternalServerError,
	store.ErrDeserializingRecord:  http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
