package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/progress"
	"github.com/dukerupert/chistopro/internal/stats"
	"github.com/dukerupert/chistopro/internal/store"
)

type ProfileHandler struct {
	profiles   *store.ProfileStore
	checklists *store.ChecklistStore
	engine     *progress.Engine
	logger     *slog.Logger
}

func NewProfileHandler(ps *store.ProfileStore, cs *store.ChecklistStore, engine *progress.Engine, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: ps, checklists: cs, engine: engine, logger: logger}
}

// loadProfile writes the error response itself and returns nil when there is
// nothing to show.
func (h *ProfileHandler) loadProfile(w http.ResponseWriter, r *http.Request) *model.UserProfile {
	p, err := h.profiles.Get(r.Context())
	if err != nil {
		h.logger.Error("load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return nil
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return nil
	}
	return p
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if p := h.loadProfile(w, r); p != nil {
		writeJSON(w, http.StatusOK, p)
	}
}

// Put handles PUT /api/profile. Chubrik progress is owned by the progress
// engine and cannot be set here.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req model.UserProfile
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	existing, err := h.profiles.Get(r.Context())
	if err != nil {
		h.logger.Error("load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	req.ChubrikProgress, req.ChubrikMaxLevel, req.Chubriks = 0, 1, 0
	if existing != nil {
		req.ChubrikProgress = existing.ChubrikProgress
		req.ChubrikMaxLevel = existing.ChubrikMaxLevel
		req.Chubriks = existing.Chubriks
	}

	if err := h.profiles.Save(r.Context(), &req); err != nil {
		h.logger.Error("save profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	status := http.StatusOK
	if existing == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, req)
}

// Progress handles GET /api/progress
func (h *ProfileHandler) Progress(w http.ResponseWriter, r *http.Request) {
	if p := h.loadProfile(w, r); p != nil {
		writeJSON(w, http.StatusOK, h.engine.Summarize(p))
	}
}

// Stats handles GET /api/stats
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	p := h.loadProfile(w, r)
	if p == nil {
		return
	}
	list, err := h.checklists.List(r.Context())
	if err != nil {
		h.logger.Error("list checklists", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load checklists")
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(list, p))
}
