package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
	"github.com/google/uuid"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.DisplayName, &u.FavoriteDrink, &u.XP, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, display_name, favorite_drink, xp, created_at, updated_at`

func (s *UserStore) Create(displayName, favoriteDrink string) (*model.User, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO users (id, display_name, favorite_drink, xp, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)`,
		id, displayName, favoriteDrink, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) Update(id, displayName, favoriteDrink string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET display_name = ?, favorite_drink = ?, updated_at = ? WHERE id = ?`,
		displayName, favoriteDrink, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// AddXP adds delta to the user's XP total and returns the updated user.
func (s *UserStore) AddXP(id string, delta int) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET xp = xp + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("add xp: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Leaderboard returns users ordered by XP descending.
func (s *UserStore) Leaderboard(limit int) ([]model.User, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+userCols+` FROM users ORDER BY xp DESC, display_name ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
