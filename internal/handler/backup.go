package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chistopro/internal/backup"
)

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, logger: logger}
}

type backupRequest struct {
	Passphrase string `json:"passphrase"`
}

func (h *BackupHandler) writeBackupError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, backup.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "backup not configured")
	case errors.Is(err, backup.ErrNoPassphrase):
		writeError(w, http.StatusBadRequest, "passphrase is required")
	default:
		h.logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

// Run handles POST /api/backup. The body is optional; without a passphrase
// the configured one is used.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	rec, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.writeBackupError(w, "backup", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// List handles GET /api/backups
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.manager.List(r.Context())
	if err != nil {
		h.writeBackupError(w, "list backups", err)
		return
	}
	if records == nil {
		records = []backup.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.manager.Status(),
		"backups": records,
	})
}

type restoreRequest struct {
	Key        string `json:"key"`
	Passphrase string `json:"passphrase"`
}

// Restore handles POST /api/backups/restore
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decodeJSON(r, &req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if err := h.manager.Restore(r.Context(), req.Key, req.Passphrase); err != nil {
		h.writeBackupError(w, "restore", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
