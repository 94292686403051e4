package handlers

import (
	"context"
	"net/http"
	"strings"
)

// ChatFunc produces the assistant's reply for one message. The kiosk
// wires the full command router here so typed messages behave exactly
// like spoken ones.
type ChatFunc func(ctx context.Context, message string) string

// ChatHandler serves the typed chat endpoint.
type ChatHandler struct {
	chat ChatFunc
}

func NewChatHandler(chat ChatFunc) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Handle handles POST /api/chat-handler.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"reply": h.chat(r.Context(), req.Message),
	})
}
