package integrations

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aria-assistant/aria/internal/api"
	"github.com/aria-assistant/aria/internal/auth"
	"github.com/aria-assistant/aria/internal/supaclient"
)

// serviceError maps repository failures onto HTTP responses. Cloud-backed
// operations fail with 503 when sync is not configured.
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

	integs, err := h.svc.List(r.Context(), userID)
	if err != nil {
		serviceError(w, err, "listing integrations")
		return
	}
	api.JSON(w, http.StatusOK, integs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid integration id"))
		return
	}

	integ, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		serviceError(w, err, "fetching integration")
		return
	}
	if integ == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}
	api.JSON(w, http.StatusOK, integ)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req CreateIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	integ, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		serviceError(w, err, "creating integration")
		return
	}
	api.JSON(w, http.StatusCreated, integ)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid integration id"))
		return
	}

	var req UpdateIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	integ, err := h.svc.Update(r.Context(), userID, id, &req)
	if err != nil {
		serviceError(w, err, "updating integration")
		return
	}
	if integ == nil {
		api.HandleError(w, api.ErrNotFound)
		return
	}
	api.JSON(w, http.StatusOK, integ)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid integration id"))
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		serviceError(w, err, "deleting integration")
		return
	}
	api.JSONMessage(w, http.StatusOK, "integration deleted")
}

// Execute runs a named command. Resolution failures return the user's
// actual options so a retry can succeed.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	result, err := h.svc.Execute(r.Context(), userID, &req)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			api.JSONResolutionError(w, http.StatusNotFound, notFound.Error(), notFound.Known)
			return
		}
		var cmdErr *CommandNotFoundError
		if errors.As(err, &cmdErr) {
			api.JSONResolutionError(w, http.StatusNotFound, cmdErr.Error(), cmdErr.Available)
			return
		}
		var notSynced *NotSyncedError
		if errors.As(err, &notSynced) {
			api.JSONErrorMessage(w, http.StatusConflict, notSynced.Error())
			return
		}
		if errors.Is(err, supaclient.ErrDisabled) {
			api.HandleError(w, api.ErrCloudDisabled)
			return
		}
		slog.Error("executing integration command", "error", err)
		api.JSONErrorMessage(w, http.StatusBadGateway, "the integration could not be reached")
		return
	}
	api.JSON(w, http.StatusOK, result)
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	op, ok := h.svc.CurrentOperation(userID)
	if !ok {
		api.HandleError(w, api.NewNotFoundError("no command has been executed"))
		return
	}
	api.JSON(w, http.StatusOK, op)
}
