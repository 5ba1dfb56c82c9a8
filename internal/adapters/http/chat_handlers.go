package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

func (rt *Router) chatTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	started := time.Now()
	answer, err := rt.chat.Chat(r.Context(), domain.ChatRequest{
		Question:  req.Question,
		SessionID: req.SessionID,
		UserID:    userIDFromContext(r.Context()),
		Model:     req.Model,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordChatTurn(serviceName, rt.options.RetrievalMode, answer.SourceCount, time.Since(started))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	sessions, err := rt.history.UserHistory(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/v1/chat/history/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return
	}

	removed, err := rt.history.DeleteSession(r.Context(), userIDFromContext(r.Context()), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
