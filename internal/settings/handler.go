package settings

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aria-assistant/aria/internal/api"
	"github.com/aria-assistant/aria/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	category := chi.URLParam(r, "category")
	if !Known(category) {
		api.HandleError(w, api.NewNotFoundError("unknown settings category"))
		return
	}

	data, err := h.svc.Load(r.Context(), userID, category)
	if err != nil {
		slog.Error("loading settings", "category", category, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, data)
}

type updateResponse struct {
	Settings map[string]any `json:"settings"`
	CloudOK  bool           `json:"cloud_ok"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	category := chi.URLParam(r, "category")
	if !Known(category) {
		api.HandleError(w, api.NewNotFoundError("unknown settings category"))
		return
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	cloudOK, err := h.svc.UpdateCategory(r.Context(), userID, category, data)
	if err != nil {
		slog.Error("updating settings", "category", category, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	saved, err := h.svc.Load(r.Context(), userID, category)
	if err != nil {
		slog.Error("reloading settings", "category", category, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, updateResponse{Settings: saved, CloudOK: cloudOK})
}

type syncAllResponse struct {
	Synced bool     `json:"synced"`
	Failed []string `json:"failed,omitempty"`
}

func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	failed, err := h.svc.SyncAll(r.Context(), userID)
	if err != nil {
		slog.Error("syncing settings", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, syncAllResponse{Synced: len(failed) == 0, Failed: failed})
}

// Reconcile pulls the cloud copy of every category, or seeds the cloud from
// local when it has nothing. Called by clients right after sign-in.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	if err := h.svc.Reconcile(r.Context(), userID); err != nil {
		slog.Error("reconciling settings", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSONMessage(w, http.StatusOK, "settings reconciled")
}
