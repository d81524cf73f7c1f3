package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aria-assistant/aria/internal/api"
	"github.com/aria-assistant/aria/internal/auth"
	"github.com/aria-assistant/aria/internal/memory"
	"github.com/aria-assistant/aria/internal/providers"
	"github.com/aria-assistant/aria/internal/supaclient"
)

// Speaker voices an assistant reply. Wired to the speech sequencer; the
// handler only needs this slice of it.
type Speaker interface {
	Speak(ctx context.Context, userID, text string) error
}

// Recorder stores a completed exchange for later recall. Wired to the
// memory service.
type Recorder interface {
	Remember(ctx context.Context, userID string, req *memory.CreateEntryRequest) (*memory.Entry, error)
}

type Handler struct {
	svc      *Service
	registry *providers.Registry
	speaker  Speaker
	recorder Recorder
	validate *validator.Validate
}

func NewHandler(svc *Service, registry *providers.Registry, speaker Speaker, recorder Recorder) *Handler {
	return &Handler{
		svc:      svc,
		registry: registry,
		speaker:  speaker,
		recorder: recorder,
		validate: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	msgs, err := h.svc.Load(r.Context(), userID)
	if err != nil {
		slog.Error("loading chat history", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, http.StatusOK, msgs)
}

func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(msg); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if err := h.svc.Append(r.Context(), userID, msg); err != nil {
		slog.Error("appending chat message", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSONMessage(w, http.StatusCreated, "message appended")
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	if err := h.svc.Clear(r.Context(), userID); err != nil {
		slog.Error("clearing chat history", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSONMessage(w, http.StatusOK, "chat history cleared")
}

type CompleteRequest struct {
	Message   string `json:"message" validate:"required,min=1"`
	Provider  string `json:"provider" validate:"omitempty,oneof=openai anthropic gemini"`
	Model     string `json:"model"`
	System    string `json:"system"`
	Speak     bool   `json:"speak"`
	MaxTokens int    `json:"max_tokens" validate:"omitempty,min=1,max=8192"`
}

type CompleteResponse struct {
	Reply        string `json:"reply"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Complete appends the user's message, asks the selected provider for a
// reply using the full (capped) history as context, appends that reply, and
// optionally starts voicing it.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	provider, err := h.registry.Get(req.Provider)
	if err != nil {
		api.HandleError(w, api.NewBadRequestError(err.Error()))
		return
	}

	if err := h.svc.Append(r.Context(), userID, Message{Role: RoleUser, Content: req.Message}); err != nil {
		slog.Error("appending user message", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	msgs, err := h.svc.Load(r.Context(), userID)
	if err != nil {
		slog.Error("loading history for completion", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	turns := make([]providers.Message, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, providers.Message{Role: m.Role, Content: m.Content})
	}

	completion, err := provider.Complete(r.Context(), &providers.CompletionRequest{
		Model:     req.Model,
		System:    req.System,
		Messages:  turns,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		var cfgErr *providers.ConfigError
		if errors.As(err, &cfgErr) {
			api.HandleError(w, api.NewBadRequestError(cfgErr.Error()))
			return
		}
		slog.Error("completing chat", "provider", provider.Name(), "error", err)
		api.JSONErrorMessage(w, http.StatusBadGateway, "the model provider is unavailable")
		return
	}

	if err := h.svc.Append(r.Context(), userID, Message{Role: RoleAssistant, Content: completion.Text}); err != nil {
		slog.Error("appending assistant reply", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	if h.recorder != nil {
		go func() {
			_, err := h.recorder.Remember(context.Background(), userID, &memory.CreateEntryRequest{
				UserInput:      req.Message,
				AssistantReply: completion.Text,
			})
			if err != nil && !errors.Is(err, supaclient.ErrDisabled) {
				slog.Warn("recording exchange", "user_id", userID, "error", err)
			}
		}()
	}

	if req.Speak && h.speaker != nil {
		go func() {
			if err := h.speaker.Speak(context.Background(), userID, completion.Text); err != nil {
				slog.Warn("voicing reply", "user_id", userID, "error", err)
			}
		}()
	}

	api.JSON(w, http.StatusOK, CompleteResponse{
		Reply:        completion.Text,
		Model:        completion.Model,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
	})
}
