package xp

import "sort"

// XP awarded per action. Values are frozen; changing them would skew
// historical totals.
const (
	VisitXP       = 10
	LikeXP        = 5
	StatXP        = 5
	NightOutXP    = 25
	AchievementXP = 50
)

// Rank is a named tier on the progression ladder.
type Rank struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	MinXP int    `json:"min_xp"`
}

// Ranks is the fixed ladder, ascending by MinXP.
var Ranks = []Rank{
	{Name: "Fresh Face", Icon: "🌱", MinXP: 0},
	{Name: "Regular", Icon: "🍻", MinXP: 100},
	{Name: "Bar Fly", Icon: "🪰", MinXP: 350},
	{Name: "Night Owl", Icon: "🦉", MinXP: 800},
	{Name: "Local Legend", Icon: "🏆", MinXP: 2000},
	{Name: "Nightlife Royalty", Icon: "👑", MinXP: 5000},
}

// RankForXP returns the highest rank whose threshold totalXP meets.
func RankForXP(totalXP int) Rank {
	if totalXP < 0 {
		totalXP = 0
	}
	// First rank whose MinXP exceeds totalXP; the one below is ours.
	i := sort.Search(len(Ranks), func(i int) bool { return Ranks[i].MinXP > totalXP })
	if i == 0 {
		return Ranks[0]
	}
	return Ranks[i-1]
}

// NextRank returns the rank above the user's current one, or false at the top
// of the ladder.
func NextRank(totalXP int) (Rank, bool) {
	i := sort.Search(len(Ranks), func(i int) bool { return Ranks[i].MinXP > totalXP })
	if i >= len(Ranks) {
		return Rank{}, false
	}
	return Ranks[i], true
}

// Progress reports how far the user is between their current rank and the
// next as a fraction in [0, 1]. Returns 1 at the top of the ladder.
func Progress(totalXP int) float64 {
	cur := RankForXP(totalXP)
	next, ok := NextRank(totalXP)
	if !ok {
		return 1
	}
	span := next.MinXP - cur.MinXP
	if span <= 0 {
		return 1
	}
	return float64(totalXP-cur.MinXP) / float64(span)
}
