package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cryptoanalyst/pkg/cryptoanalyst"
)

type analyzeRequest struct {
	Question  string `json:"question"`
	SessionID *int64 `json:"session_id"`
}

type saveSessionRequest struct {
	Messages []cryptoanalyst.StoredMessage `json:"messages"`
}

type sessionResponse struct {
	ID       int64                         `json:"id"`
	Name     string                        `json:"name"`
	Messages []cryptoanalyst.StoredMessage `json:"messages"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// analyze runs the aggregation pipeline for one question. When a session id
// is supplied, the session's turns feed the prompt as history and the new
// exchange is appended back to the session.
func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	var stored []cryptoanalyst.StoredMessage
	var history []cryptoanalyst.ConversationTurn
	if req.SessionID != nil {
		_, messages, err := h.core.LoadChatSession(*req.SessionID)
		if err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}
		stored = messages
		history = make([]cryptoanalyst.ConversationTurn, 0, len(messages))
		for _, msg := range messages {
			history = append(history, cryptoanalyst.ConversationTurn{Role: msg.Role, Text: msg.Content})
		}
	}

	result := h.core.Analyze(r.Context(), question, history)

	if req.SessionID != nil {
		stored = append(stored,
			cryptoanalyst.StoredMessage{Role: cryptoanalyst.RoleUser, Content: question},
			cryptoanalyst.StoredMessage{
				Role:    cryptoanalyst.RoleAssistant,
				Content: result.Narrative,
				Quotes:  result.Quotes,
				News:    result.News,
			},
		)
		if err := h.core.UpdateChatSession(*req.SessionID, stored); err != nil {
			h.core.Logger().Warn("session update after analyze failed",
				"session_id", *req.SessionID, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listSessions(w http.ResponseWriter, _ *http.Request) {
	sessions, err := h.core.ListChatSessions()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *handler) saveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := h.core.GenerateChatName(r.Context(), req.Messages)
	id, err := h.core.SaveChatSession(name, req.Messages)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": name})
}

func (h *handler) loadSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	name, messages, err := h.core.LoadChatSession(id)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: id, Name: name, Messages: messages})
}

func (h *handler) updateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.core.UpdateChatSession(id, req.Messages); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	if err := h.core.DeleteChatSession(id); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return 0, false
	}
	return id, true
}
