package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/reminder"
	"github.com/dukerupert/chistopro/internal/store"
)

// Evaluator re-plans the pending reminder after preferences change.
type Evaluator interface {
	Evaluate(ctx context.Context)
}

type PushHandler struct {
	pushStore *store.PushStore
	profiles  *store.ProfileStore
	service   *reminder.Service
	evaluator Evaluator
	logger    *slog.Logger
}

// NewPushHandler creates a PushHandler. service and evaluator are nil when
// no VAPID keys are configured; subscriptions are still stored.
func NewPushHandler(ps *store.PushStore, profiles *store.ProfileStore, svc *reminder.Service, evaluator Evaluator, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, profiles: profiles, service: svc, evaluator: evaluator, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscriptions
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}
	if u, err := url.Parse(req.Endpoint); err != nil || u.Scheme != "https" {
		writeError(w, http.StatusBadRequest, "endpoint must be an https URL")
		return
	}

	sub, err := h.pushStore.CreateSubscription(r.Context(), req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions handles GET /api/push/subscriptions
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.pushStore.List(r.Context())
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe handles DELETE /api/push/subscriptions
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := decodeJSON(r, &req); err != nil || req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := h.pushStore.DeleteByEndpoint(r.Context(), req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusNotFound, "push notifications not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type preferencesRequest struct {
	Enabled bool `json:"enabled"`
}

// UpdatePreferences handles PUT /api/push/preferences
func (h *PushHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p, err := h.profiles.Update(r.Context(), func(p *model.UserProfile) error {
		p.NotificationsEnabled = req.Enabled
		return nil
	})
	if errors.Is(err, store.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.logger.Error("update notification preference", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}

	if h.evaluator != nil {
		h.evaluator.Evaluate(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": p.NotificationsEnabled})
}
