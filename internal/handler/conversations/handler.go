package conversations

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docsmithhq/backend/internal/service/transcript"
	"github.com/docsmithhq/backend/pkg/utils"
)

// Handler exposes conversation transcripts over HTTP.
type Handler struct {
	transcripts *transcript.Store
}

// New creates a conversations handler.
func New(transcripts *transcript.Store) *Handler {
	return &Handler{transcripts: transcripts}
}

// RegisterRoutes registers conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversations/{conversationID}/messages", h.handleListMessages)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		utils.RespondError(w, http.StatusBadRequest, "conversationID is required")
		return
	}

	messages := h.transcripts.History(conversationID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"conversation_id": conversationID,
		"messages":        messages,
	})
}
