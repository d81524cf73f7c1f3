package memory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/aria-assistant/aria/internal/api"
	"github.com/aria-assistant/aria/internal/auth"
	"github.com/aria-assistant/aria/internal/supaclient"
)

func serviceError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, supaclient.ErrDisabled) {
		api.HandleError(w, api.ErrCloudDisabled)
		return
	}
	slog.Error(msg, "error", err)
	api.HandleError(w, api.ErrInternalServer)
}

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.svc.List(r.Context(), userID, limit)
	if err != nil {
		serviceError(w, err, "listing memories")
		return
	}
	api.JSON(w, http.StatusOK, entries)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		api.HandleError(w, api.NewBadRequestError("missing query parameter q"))
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.svc.Search(r.Context(), userID, query, limit)
	if err != nil {
		serviceError(w, err, "searching memories")
		return
	}
	api.JSON(w, http.StatusOK, entries)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	entry, err := h.svc.Remember(r.Context(), userID, &req)
	if err != nil {
		serviceError(w, err, "creating memory")
		return
	}
	api.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	if err := h.svc.ClearAll(r.Context(), userID); err != nil {
		serviceError(w, err, "clearing memories")
		return
	}
	api.JSONMessage(w, http.StatusOK, "memories cleared")
}
