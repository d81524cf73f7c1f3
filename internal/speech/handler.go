package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aria-assistant/aria/internal/api"
	"github.com/aria-assistant/aria/internal/auth"
)

type Handler struct {
	seq      *Sequencer
	validate *validator.Validate
}

func NewHandler(seq *Sequencer) *Handler {
	return &Handler{
		seq:      seq,
		validate: validator.New(),
	}
}

type SpeakRequest struct {
	Text string `json:"text" validate:"required"`
}

// Speak starts voicing the text, replacing any playback in progress, and
// returns once the sequence is accepted.
func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	go func() {
		if err := h.seq.Speak(context.Background(), userID, req.Text); err != nil {
			slog.Warn("speech playback failed", "user_id", userID, "error", err)
		}
	}()
	api.JSONMessage(w, http.StatusAccepted, "playback started")
}

func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	h.seq.Stop(userID)
	api.JSONMessage(w, http.StatusOK, "playback stopped")
}

type statusResponse struct {
	Speaking bool `json:"speaking"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	api.JSON(w, http.StatusOK, statusResponse{Speaking: h.seq.Speaking(userID)})
}

type voicesResponse struct {
	Voices   []Voice `json:"voices"`
	Selected *Voice  `json:"selected,omitempty"`
}

func (h *Handler) Voices(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	voices, selected := h.seq.Voices(r.Context(), userID)
	api.JSON(w, http.StatusOK, voicesResponse{Voices: voices, Selected: selected})
}

type saveVoiceRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

func (h *Handler) SaveVoice(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req saveVoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if err := h.seq.SaveVoice(r.Context(), userID, req.Name); err != nil {
		slog.Error("saving voice preference", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSONMessage(w, http.StatusOK, "voice saved")
}
