package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/drewb10/barbuddy/internal/model"
	"github.com/drewb10/barbuddy/internal/store"
	"github.com/drewb10/barbuddy/internal/websocket"
)

type ChatHandler struct {
	chatStore *store.ChatStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewChatHandler(cs *store.ChatStore, hub *websocket.Hub, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chatStore: cs, hub: hub, logger: logger}
}

// History returns recent messages for a venue room, oldest first.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	msgs, err := h.chatStore.History(r.PathValue("id"), limit)
	if err != nil {
		h.logger.Error("chat history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Presence reports how many clients are currently connected to a venue room.
func (h *ChatHandler) Presence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"connected": h.hub.RoomCount(r.PathValue("id"))})
}
