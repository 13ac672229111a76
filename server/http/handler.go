package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/w-h-a/assistant"
	turnlog "github.com/w-h-a/assistant/turn_log"
)

// Chatter is what the chat api serves.
type Chatter interface {
	Chat(ctx context.Context, sessionId string, message string, withSearch bool) (assistant.Reply, error)
	History(ctx context.Context) ([]turnlog.Turn, error)
}

type chatRequest struct {
	Message          string `json:"message"`
	WebSearchEnabled *bool  `json:"web_search_enabled"`
	SessionId        string `json:"session_id"`
}

type chatResponse struct {
	Response      string `json:"response"`
	UsedWebSearch bool   `json:"used_web_search"`
	SessionId     string `json:"session_id"`
}

type historyMessage struct {
	Id        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

type historyResponse struct {
	Messages []historyMessage `json:"messages"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type chatHandler struct {
	chatter Chatter
}

func (h *chatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid json"})
		return
	}

	withSearch := true
	if req.WebSearchEnabled != nil {
		withSearch = *req.WebSearchEnabled
	}

	reply, err := h.chatter.Chat(r.Context(), req.SessionId, req.Message, withSearch)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "chat processing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Chat processing error: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:      reply.Text,
		UsedWebSearch: reply.UsedWebSearch,
		SessionId:     reply.SessionId,
	})
}

func (h *chatHandler) History(w http.ResponseWriter, r *http.Request) {
	turns, err := h.chatter.History(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list chat history", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Error fetching chat history: " + err.Error()})
		return
	}

	rsp := historyResponse{Messages: make([]historyMessage, 0, len(turns))}
	for _, t := range turns {
		rsp.Messages = append(rsp.Messages, historyMessage{
			Id:        t.Id,
			Timestamp: t.Timestamp.Format(time.RFC3339Nano),
			Role:      t.Role,
			Content:   t.Text,
		})
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (h *chatHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
