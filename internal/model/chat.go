package model

import "time"

// ChatSession is an anonymous identity inside one venue's room. The handle
// is generated server-side; the user's profile is never exposed to the room.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	VenueID   string    `json:"venue_id"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one message in a venue room.
type ChatMessage struct {
	ID        string    `json:"id"`
	VenueID   string    `json:"venue_id"`
	SessionID string    `json:"session_id"`
	Handle    string    `json:"handle"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
