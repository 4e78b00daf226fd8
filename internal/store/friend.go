package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
)

type FriendStore struct {
	db *sql.DB
}

func NewFriendStore(db *sql.DB) *FriendStore {
	return &FriendStore{db: db}
}

func scanFriendship(scanner interface{ Scan(...any) error }) (*model.Friendship, error) {
	var f model.Friendship
	var respondedAt sql.NullTime

	err := scanner.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	if respondedAt.Valid {
		f.RespondedAt = &respondedAt.Time
	}
	return &f, nil
}

const friendshipCols = `id, requester_id, addressee_id, status, created_at, responded_at`

// Request creates a pending friend request. At most one friendship row may
// exist per user pair in either direction.
func (s *FriendStore) Request(requesterID, addresseeID string) (*model.Friendship, error) {
	if requesterID == addresseeID {
		return nil, fmt.Errorf("cannot befriend yourself")
	}

	existing, err := s.GetByPair(requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("friendship already exists")
	}

	result, err := s.db.Exec(
		`INSERT INTO friendships (requester_id, addressee_id, status, created_at) VALUES (?, ?, ?, ?)`,
		requesterID, addresseeID, string(model.FriendshipPending), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert friendship: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FriendStore) GetByID(id int64) (*model.Friendship, error) {
	row := s.db.QueryRow(`SELECT `+friendshipCols+` FROM friendships WHERE id = ?`, id)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return f, nil
}

// GetByPair returns the friendship between two users in either direction.
func (s *FriendStore) GetByPair(a, b string) (*model.Friendship, error) {
	row := s.db.QueryRow(
		`SELECT `+friendshipCols+` FROM friendships
		 WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`,
		a, b, b, a,
	)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship by pair: %w", err)
	}
	return f, nil
}

// Respond resolves a pending request. Only the addressee may respond.
func (s *FriendStore) Respond(id int64, addresseeID string, accept bool) (*model.Friendship, error) {
	f, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("friendship not found")
	}
	if f.AddresseeID != addresseeID {
		return nil, fmt.Errorf("not the addressee")
	}
	if f.Status != model.FriendshipPending {
		return nil, fmt.Errorf("request already resolved")
	}

	status := model.FriendshipDeclined
	if accept {
		status = model.FriendshipAccepted
	}
	_, err = s.db.Exec(
		`UPDATE friendships SET status = ?, responded_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update friendship: %w", err)
	}
	return s.GetByID(id)
}

// ListFriends returns the accepted friends of a user as user profiles.
func (s *FriendStore) ListFriends(userID string) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.display_name, u.favorite_drink, u.xp, u.created_at, u.updated_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.requester_id = ? THEN f.addressee_id ELSE f.requester_id END
		 WHERE (f.requester_id = ? OR f.addressee_id = ?) AND f.status = ?
		 ORDER BY u.display_name ASC`,
		userID, userID, userID, string(model.FriendshipAccepted),
	)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var friends []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, *u)
	}
	return friends, rows.Err()
}

// ListPending returns requests awaiting the user's response, newest first.
func (s *FriendStore) ListPending(userID string) ([]model.Friendship, error) {
	rows, err := s.db.Query(
		`SELECT `+friendshipCols+` FROM friendships
		 WHERE addressee_id = ? AND status = ? ORDER BY created_at DESC`,
		userID, string(model.FriendshipPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	var reqs []model.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		reqs = append(reqs, *f)
	}
	return reqs, rows.Err()
}

// CountFriends returns the number of accepted friendships for a user.
func (s *FriendStore) CountFriends(userID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM friendships WHERE (requester_id = ? OR addressee_id = ?) AND status = ?`,
		userID, userID, string(model.FriendshipAccepted),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count friends: %w", err)
	}
	return n, nil
}
