package websocket

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	maxMessageLen  = 500
)

// Client represents one connection inside a venue room, carrying the
// anonymous session identity minted for that room.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte

	venueID   string
	sessionID string
	userID    string
	handle    string
}

// NewClient creates a Client tied to the given hub, connection, and room
// identity.
func NewClient(hub *Hub, conn *ws.Conn, venueID, sessionID, userID, handle string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		venueID:   venueID,
		sessionID: sessionID,
		userID:    userID,
		handle:    handle,
	}
}

// VenueID returns the room this client belongs to.
func (c *Client) VenueID() string { return c.venueID }

// SessionID returns the anonymous session id.
func (c *Client) SessionID() string { return c.sessionID }

// UserID returns the authenticated user behind the session.
func (c *Client) UserID() string { return c.userID }

// Handle returns the anonymous room handle.
func (c *Client) Handle() string { return c.handle }

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump reads chat messages and hands them to the hub's inbound handler.
// It returns on error (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		kind, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if kind != ws.MessageText {
			continue
		}
		body := strings.TrimSpace(string(data))
		if body == "" {
			continue
		}
		body = truncate(body, maxMessageLen)
		if c.hub.inbound != nil {
			c.hub.inbound(c, body)
		}
	}
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub closed the channel — connection is done
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
