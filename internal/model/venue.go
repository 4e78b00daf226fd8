package model

import "time"

// VenueType classifies a venue for discovery filtering.
type VenueType string

const (
	VenueTypeDiveBar     VenueType = "dive_bar"
	VenueTypeSportsBar   VenueType = "sports_bar"
	VenueTypeClub        VenueType = "club"
	VenueTypeRooftop     VenueType = "rooftop"
	VenueTypeCocktailBar VenueType = "cocktail_bar"
	VenueTypeOther       VenueType = "other"
)

// Venue is a catalog entry in the discovery list.
type Venue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      VenueType `json:"type"`
	Address   string    `json:"address"`
	OpenHours string    `json:"open_hours"`
	CreatedAt time.Time `json:"created_at"`
}

// VenueInteraction tracks one user's daily visit and like counters for a
// single venue. Dates are local calendar dates in YYYY-MM-DD form; a record
// whose date field is not today is logically stale and is reset on the next
// touching interaction, not by any timer.
type VenueInteraction struct {
	VenueID         string    `json:"venue_id"`
	Count           int       `json:"count"`
	LastReset       string    `json:"last_reset"`
	LastInteraction time.Time `json:"last_interaction"`
	ArrivalTime     string    `json:"arrival_time,omitempty"`
	Likes           int       `json:"likes"`
	LastLikeReset   string    `json:"last_like_reset"`
	DailyLikesUsed  int       `json:"daily_likes_used"`
	LikeTimeSlot    string    `json:"like_time_slot,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
