package store

import (
	"database/sql"
	"fmt"

	"github.com/drewb10/barbuddy/internal/model"
)

// VenueInteractionStore persists whole per-user venue interaction state.
// Save replaces the user's rows as a unit inside one transaction.
type VenueInteractionStore struct {
	db *sql.DB
}

func NewVenueInteractionStore(db *sql.DB) *VenueInteractionStore {
	return &VenueInteractionStore{db: db}
}

// Load reads all of the user's interaction records.
func (s *VenueInteractionStore) Load(userID string) ([]model.VenueInteraction, error) {
	rows, err := s.db.Query(
		`SELECT venue_id, count, last_reset, last_interaction, arrival_time,
		        likes, last_like_reset, daily_likes_used, like_time_slot, created_at
		 FROM venue_interactions WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load venue interactions: %w", err)
	}
	defer rows.Close()

	var recs []model.VenueInteraction
	for rows.Next() {
		var r model.VenueInteraction
		var lastInteraction sql.NullTime

		err := rows.Scan(&r.VenueID, &r.Count, &r.LastReset, &lastInteraction, &r.ArrivalTime,
			&r.Likes, &r.LastLikeReset, &r.DailyLikesUsed, &r.LikeTimeSlot, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan venue interaction: %w", err)
		}
		if lastInteraction.Valid {
			r.LastInteraction = lastInteraction.Time
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Save writes the user's full record set, replacing any existing rows.
func (s *VenueInteractionStore) Save(userID string, recs []model.VenueInteraction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM venue_interactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear venue interactions: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO venue_interactions (user_id, venue_id, count, last_reset, last_interaction,
		        arrival_time, likes, last_like_reset, daily_likes_used, like_time_slot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		var lastInteraction sql.NullTime
		if !r.LastInteraction.IsZero() {
			lastInteraction = sql.NullTime{Time: r.LastInteraction, Valid: true}
		}
		_, err := stmt.Exec(userID, r.VenueID, r.Count, r.LastReset, lastInteraction,
			r.ArrivalTime, r.Likes, r.LastLikeReset, r.DailyLikesUsed, r.LikeTimeSlot, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert venue interaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
