package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chistopro/internal/checklist"
	"github.com/dukerupert/chistopro/internal/lifecycle"
	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/store"
)

type ChecklistHandler struct {
	controller *lifecycle.Controller
	checklists *store.ChecklistStore
	logger     *slog.Logger
}

func NewChecklistHandler(c *lifecycle.Controller, cs *store.ChecklistStore, logger *slog.Logger) *ChecklistHandler {
	return &ChecklistHandler{controller: c, checklists: cs, logger: logger}
}

// writeLifecycleError maps controller errors to HTTP statuses.
func (h *ChecklistHandler) writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checklist.ErrProfileRequired):
		writeError(w, http.StatusConflict, "profile required")
	case errors.Is(err, lifecycle.ErrChecklistNotFound):
		writeError(w, http.StatusNotFound, "checklist not found")
	case errors.Is(err, lifecycle.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, lifecycle.ErrChecklistClosed):
		writeError(w, http.StatusConflict, "checklist is closed")
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid status")
	default:
		h.logger.Error("checklist operation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Current handles GET /api/checklist. Opening the app runs expiry, backfill
// and generation before returning the checklist to work on.
func (h *ChecklistHandler) Current(w http.ResponseWriter, r *http.Request) {
	cl, err := h.controller.Open(r.Context())
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	if cl == nil {
		// another open is still running
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, cl)
}

// Resume handles POST /api/session/resume
func (h *ChecklistHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.controller.Resume(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/checklists
func (h *ChecklistHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.checklists.List(r.Context())
	if err != nil {
		h.logger.Error("list checklists", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list checklists")
		return
	}
	if list == nil {
		list = []model.Checklist{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Toggle handles POST /api/checklists/{id}/tasks/{taskID}/toggle
func (h *ChecklistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	update, err := h.controller.ToggleTask(r.Context(), r.PathValue("id"), r.PathValue("taskID"))
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

type taskStatusRequest struct {
	Status model.Status `json:"status"`
}

// SetStatus handles PUT /api/checklists/{id}/tasks/{taskID}
func (h *ChecklistHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req taskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	update, err := h.controller.SetTaskStatus(r.Context(), r.PathValue("id"), r.PathValue("taskID"), req.Status)
	if err != nil {
		h.writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}
