package store

import (
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
	"github.com/google/uuid"
)

// historyKeep is how many messages per venue survive a trim sweep.
const historyKeep = 500

type ChatStore struct {
	db *sql.DB
}

func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

var handleAdjectives = []string{
	"Sneaky", "Thirsty", "Dizzy", "Mellow", "Rowdy", "Smooth",
	"Salty", "Lucky", "Groovy", "Fuzzy", "Bold", "Chill",
}

var handleAnimals = []string{
	"Fox", "Owl", "Moose", "Raccoon", "Penguin", "Walrus",
	"Badger", "Otter", "Coyote", "Heron", "Lynx", "Yak",
}

// newHandle generates an anonymous room handle like "Dizzy Otter 42".
func newHandle() string {
	adj := handleAdjectives[rand.IntN(len(handleAdjectives))]
	animal := handleAnimals[rand.IntN(len(handleAnimals))]
	return fmt.Sprintf("%s %s %d", adj, animal, rand.IntN(90)+10)
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.ChatSession, error) {
	var s model.ChatSession
	err := scanner.Scan(&s.ID, &s.UserID, &s.VenueID, &s.Handle, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOrCreateSession returns the user's anonymous session for a venue,
// minting a fresh handle on first join. The handle is stable per
// (user, venue) so a rejoin keeps the same identity.
func (s *ChatStore) GetOrCreateSession(userID, venueID string) (*model.ChatSession, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, venue_id, handle, created_at FROM chat_sessions WHERE user_id = ? AND venue_id = ?`,
		userID, venueID,
	)
	sess, err := scanSession(row)
	if err == nil {
		return sess, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get chat session: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO chat_sessions (id, user_id, venue_id, handle, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, venueID, newHandle(), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chat session: %w", err)
	}

	row = s.db.QueryRow(`SELECT id, user_id, venue_id, handle, created_at FROM chat_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// AddMessage persists one room message.
func (s *ChatStore) AddMessage(sess *model.ChatSession, body string) (*model.ChatMessage, error) {
	msg := &model.ChatMessage{
		ID:        uuid.NewString(),
		VenueID:   sess.VenueID,
		SessionID: sess.ID,
		Handle:    sess.Handle,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO chat_messages (id, venue_id, session_id, handle, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.VenueID, msg.SessionID, msg.Handle, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

// History returns the most recent messages for a venue in chronological order.
func (s *ChatStore) History(venueID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > historyKeep {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, venue_id, session_id, handle, body, created_at
		 FROM chat_messages WHERE venue_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		venueID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.VenueID, &m.SessionID, &m.Handle, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// TrimHistory deletes everything but the newest historyKeep messages per
// venue. Run opportunistically after writes.
func (s *ChatStore) TrimHistory(venueID string) error {
	_, err := s.db.Exec(
		`DELETE FROM chat_messages WHERE venue_id = ? AND id NOT IN (
		     SELECT id FROM chat_messages WHERE venue_id = ? ORDER BY created_at DESC LIMIT ?
		 )`,
		venueID, venueID, historyKeep,
	)
	if err != nil {
		return fmt.Errorf("trim chat history: %w", err)
	}
	return nil
}

// CountMessagesBySession returns how many messages a session has sent.
func (s *ChatStore) CountMessagesBySession(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chat_messages WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count session messages: %w", err)
	}
	return n, nil
}
