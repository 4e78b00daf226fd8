package store

import (
	"database/sql"
	"fmt"

	"github.com/drewb10/barbuddy/internal/model"
)

// AchievementStateStore persists whole per-user achievement state: every
// progress row plus the popup flags. Save replaces the user's rows as a unit
// inside one transaction, mirroring the whole-object write contract of the
// engine.
type AchievementStateStore struct {
	db *sql.DB
}

func NewAchievementStateStore(db *sql.DB) *AchievementStateStore {
	return &AchievementStateStore{db: db}
}

// Load reads the user's full state. A user with no rows yet gets an empty,
// non-nil state.
func (s *AchievementStateStore) Load(userID string) (*model.AchievementState, error) {
	st := model.NewAchievementState()

	rows, err := s.db.Query(
		`SELECT achievement_id, progress, completed, completed_at FROM achievement_progress WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load achievement progress: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.AchievementProgress
		var completed int
		var completedAt sql.NullTime

		if err := rows.Scan(&p.AchievementID, &p.Progress, &completed, &completedAt); err != nil {
			return nil, fmt.Errorf("scan achievement progress: %w", err)
		}
		p.Completed = completed != 0
		if completedAt.Valid {
			t := completedAt.Time
			p.CompletedAt = &t
		}
		st.Entries[p.AchievementID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievement progress: %w", err)
	}

	var entryShown int
	err = s.db.QueryRow(
		`SELECT entry_popup_shown, last_scheduled_popup FROM achievement_flags WHERE user_id = ?`,
		userID,
	).Scan(&entryShown, &st.LastScheduledPopup)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("load achievement flags: %w", err)
	}
	st.EntryPopupShown = entryShown != 0

	return st, nil
}

// Save writes the user's full state, replacing any existing rows.
func (s *AchievementStateStore) Save(userID string, st *model.AchievementState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM achievement_progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear achievement progress: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO achievement_progress (user_id, achievement_id, progress, completed, completed_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range st.Entries {
		completed := 0
		if p.Completed {
			completed = 1
		}
		var completedAt sql.NullTime
		if p.CompletedAt != nil {
			completedAt = sql.NullTime{Time: *p.CompletedAt, Valid: true}
		}
		if _, err := stmt.Exec(userID, p.AchievementID, p.Progress, completed, completedAt); err != nil {
			return fmt.Errorf("insert achievement progress: %w", err)
		}
	}

	entryShown := 0
	if st.EntryPopupShown {
		entryShown = 1
	}
	_, err = tx.Exec(
		`INSERT INTO achievement_flags (user_id, entry_popup_shown, last_scheduled_popup) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET entry_popup_shown = ?, last_scheduled_popup = ?`,
		userID, entryShown, st.LastScheduledPopup, entryShown, st.LastScheduledPopup,
	)
	if err != nil {
		return fmt.Errorf("save achievement flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
