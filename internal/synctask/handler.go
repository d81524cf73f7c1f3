package synctask

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aria-assistant/aria/internal/api"
	"github.com/aria-assistant/aria/internal/auth"
)

// Handler exposes sync task status so clients can show whether their
// background pushes actually landed.
type Handler struct {
	queue *Queue
}

func NewHandler(queue *Queue) *Handler {
	return &Handler{queue: queue}
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	statuses := h.queue.Recent()
	own := make([]TaskStatus, 0, len(statuses))
	for _, st := range statuses {
		if st.UserID == userID {
			own = append(own, st)
		}
	}
	api.JSON(w, http.StatusOK, own)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	st, ok := h.queue.Status(chi.URLParam(r, "id"))
	if !ok || st.UserID != userID {
		api.HandleError(w, api.NewNotFoundError("sync task not found"))
		return
	}
	api.JSON(w, http.StatusOK, st)
}
