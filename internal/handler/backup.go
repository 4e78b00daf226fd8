package handler

import (
	"log/slog"
	"net/http"

	"github.com/drewb10/barbuddy/internal/backup"
)

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// Trigger runs a backup immediately. Overlapping runs are rejected.
func (h *BackupHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.BackupNow(r.Context()); err != nil {
		h.logger.Error("manual backup", "error", err)
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.manager.Status())
}
