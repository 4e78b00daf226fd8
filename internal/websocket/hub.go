package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message is a realtime event fanned out to a venue room: a chat message, a
// like ticking up, or an achievement unlock.
type Message struct {
	Type      string         `json:"type"`
	VenueID   string         `json:"venue_id,omitempty"`
	Handle    string         `json:"handle,omitempty"`
	Body      string         `json:"body,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitzero"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// InboundFunc handles a chat message read from a client's connection.
type InboundFunc func(c *Client, body string)

// Hub maintains venue rooms of active WebSocket clients and broadcasts
// messages into them.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	inbound InboundFunc
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// OnInbound registers the handler invoked for each chat message a client
// sends. Must be set before clients connect.
func (h *Hub) OnInbound(fn InboundFunc) {
	h.inbound = fn
}

// Register adds a client to its venue's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.venueID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.venueID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from its room and closes its send channel.
// Empty rooms are dropped.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.venueID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.venueID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client in one venue's room.
func (h *Hub) Broadcast(venueID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[venueID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// RoomCount returns the number of connected clients in a venue's room.
func (h *Hub) RoomCount(venueID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[venueID])
}
