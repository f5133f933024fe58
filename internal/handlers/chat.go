package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hw112/lldm/internal/narrator"
	"github.com/hw112/lldm/pkg/chat"
)

// turnTimeout bounds one full turn including tool-call round trips.
const turnTimeout = 5 * time.Minute

// ChatHandler handles chat requests
type ChatHandler struct {
	sessions *SessionHolder
	logger   *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(sessions *SessionHolder, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Only allow POST method
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for chat endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body. Expected JSON with 'message' field.")
		return
	}

	if err := request.Validate(); err != nil {
		h.logger.Warn("Invalid chat request", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), turnTimeout)
	defer cancel()

	transcript, err := h.sessions.Current().NarratorChat(ctx, request.Message)
	if err != nil {
		h.handleTurnError(w, err)
		return
	}

	response := chat.ChatResponse{
		ChatHistory: transcript,
	}
	if len(transcript) > 0 && transcript[0].Role == chat.ChatRoleAssistant {
		response.Message = transcript[0].Content
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding chat response", "error", err)
	}
}

// handleTurnError maps turn failures to HTTP statuses without leaking
// internals to the player.
func (h *ChatHandler) handleTurnError(w http.ResponseWriter, err error) {
	var turnErr *narrator.TurnError

	switch {
	case errors.Is(err, narrator.ErrTurnExhausted):
		h.logger.Error("Turn polling budget exhausted", "error", err)
		h.writeError(w, http.StatusGatewayTimeout, "The narrator is taking too long. Please try again.")
	case errors.As(err, &turnErr):
		h.logger.Error("Turn ended in failure state", "status", turnErr.Status)
		h.writeError(w, http.StatusBadGateway, "The narrator could not complete the turn. Please try again.")
	case errors.Is(err, narrator.ErrUnknownTool):
		h.logger.Error("Narrator requested an unknown tool", "error", err)
		h.writeError(w, http.StatusBadGateway, "The narrator could not complete the turn. Please try again.")
	default:
		h.logger.Error("Error generating narrator response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to generate response.")
	}
}

func (h *ChatHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(chat.ChatResponse{Error: message}); err != nil {
		h.logger.Error("Error encoding error response", "error", err)
	}
}
