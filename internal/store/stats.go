package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
)

type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// statColumns whitelists the incrementable counters. Keys double as the
// `stat` values accepted by the increment API.
var statColumns = map[string]string{
	"beers":            "total_beers",
	"shots":            "total_shots",
	"beer_towers":      "total_beer_towers",
	"scoop_and_scores": "total_scoop_and_scores",
	"funnels":          "total_funnels",
	"shotguns":         "total_shotguns",
	"pool_games_won":   "total_pool_games_won",
	"dart_games_won":   "total_dart_games_won",
	"bars_hit":         "bars_hit",
	"nights_out":       "nights_out",
}

// ValidStat reports whether name is an incrementable counter.
func ValidStat(name string) bool {
	_, ok := statColumns[name]
	return ok
}

const statsCols = `user_id, total_beers, total_shots, total_beer_towers, total_scoop_and_scores,
	total_funnels, total_shotguns, total_pool_games_won, total_dart_games_won,
	bars_hit, nights_out, last_night_out, updated_at`

func scanStats(scanner interface{ Scan(...any) error }) (*model.UserStats, error) {
	var st model.UserStats
	var lastNightOut sql.NullTime

	err := scanner.Scan(&st.UserID, &st.TotalBeers, &st.TotalShots, &st.TotalBeerTowers,
		&st.TotalScoopAndScores, &st.TotalFunnels, &st.TotalShotguns,
		&st.TotalPoolGamesWon, &st.TotalDartGamesWon, &st.BarsHit, &st.NightsOut,
		&lastNightOut, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastNightOut.Valid {
		st.LastNightOut = &lastNightOut.Time
	}
	return &st, nil
}

// Get returns the user's stats row, creating a zero row on first access.
func (s *StatsStore) Get(userID string) (*model.UserStats, error) {
	if err := s.ensureRow(userID); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`SELECT `+statsCols+` FROM user_stats WHERE user_id = ?`, userID)
	st, err := scanStats(row)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return st, nil
}

func (s *StatsStore) ensureRow(userID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO user_stats (user_id, updated_at) VALUES (?, ?)`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ensure stats row: %w", err)
	}
	return nil
}

// Increment adds delta to one lifetime counter and returns the updated row.
// stat must be one of the whitelisted counter names.
func (s *StatsStore) Increment(userID, stat string, delta int) (*model.UserStats, error) {
	col, ok := statColumns[stat]
	if !ok {
		return nil, fmt.Errorf("unknown stat %q", stat)
	}
	if delta < 0 {
		return nil, fmt.Errorf("negative delta %d for stat %q", delta, stat)
	}
	if err := s.ensureRow(userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE user_stats SET %s = %s + ?, updated_at = ? WHERE user_id = ?`, col, col)
	args := []any{delta, now, userID}
	if stat == "nights_out" {
		query = fmt.Sprintf(`UPDATE user_stats SET %s = %s + ?, last_night_out = ?, updated_at = ? WHERE user_id = ?`, col, col)
		args = []any{delta, now, now, userID}
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return nil, fmt.Errorf("increment stat %q: %w", stat, err)
	}
	return s.Get(userID)
}
