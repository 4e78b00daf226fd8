package model

import "time"

// User is a registered profile. Identity is transport-level only; there is
// no password — clients hold a signed device token minted at registration.
type User struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	FavoriteDrink string    `json:"favorite_drink,omitempty"`
	XP            int       `json:"xp"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserStats holds the lifetime cumulative counters that drive achievement
// chains. Values are cumulative-to-date, never deltas.
type UserStats struct {
	UserID              string     `json:"user_id"`
	TotalBeers          int        `json:"total_beers"`
	TotalShots          int        `json:"total_shots"`
	TotalBeerTowers     int        `json:"total_beer_towers"`
	TotalScoopAndScores int        `json:"total_scoop_and_scores"`
	TotalFunnels        int        `json:"total_funnels"`
	TotalShotguns       int        `json:"total_shotguns"`
	TotalPoolGamesWon   int        `json:"total_pool_games_won"`
	TotalDartGamesWon   int        `json:"total_dart_games_won"`
	BarsHit             int        `json:"bars_hit"`
	NightsOut           int        `json:"nights_out"`
	LastNightOut        *time.Time `json:"last_night_out,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
