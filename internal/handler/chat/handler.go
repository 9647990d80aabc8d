package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexhq/lex-backend/internal/middleware"
	"github.com/lexhq/lex-backend/internal/model/session"
	"github.com/lexhq/lex-backend/internal/service/conversation"
	"github.com/lexhq/lex-backend/internal/service/orchestrator"
	"github.com/lexhq/lex-backend/pkg/utils"
)

// Handler serves the follow-up chat endpoints.
type Handler struct {
	orch *orchestrator.Service
}

// New creates the chat handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/chat/history", h.handleHistory)
}

// handleChat accepts the full conversation so far and returns the model's
// next turn.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var payload struct {
		History []session.ChatTurn `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.History) == 0 {
		utils.RespondError(w, http.StatusUnprocessableEntity, "history must be a non-empty array")
		return
	}

	turn, err := h.orch.Chat(r.Context(), userID, payload.History)
	if err != nil {
		respondChatError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, turn)
}

// handleHistory returns the cached conversation and analysis state.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	sess, err := h.orch.History(r.Context(), userID)
	if err != nil {
		log.Printf("[chat] fetching history for user=%s: %v", userID, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch chat history")
		return
	}

	var documentText interface{}
	if sess.DocumentText != "" {
		documentText = sess.DocumentText
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"chat_history":    sess.ChatHistory,
		"analysis_result": sess.AnalysisResult,
		"document_text":   documentText,
	})
}

func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, conversation.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "chat is unavailable")
	default:
		log.Printf("[chat] unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "an internal error occurred during chat")
	}
}
