package achievement

import (
	"fmt"

	"github.com/drewb10/barbuddy/internal/model"
)

// Metric identifies one of the lifetime counters that drive a chain.
type Metric string

const (
	MetricBeers          Metric = "beers"
	MetricShots          Metric = "shots"
	MetricBeerTowers     Metric = "beer_towers"
	MetricScoopAndScores Metric = "scoop_and_scores"
	MetricFunnels        Metric = "funnels"
	MetricShotguns       Metric = "shotguns"
	MetricPoolGamesWon   Metric = "pool_games_won"
	MetricDartGamesWon   Metric = "dart_games_won"
	MetricBarsHit        Metric = "bars_hit"
	MetricNightsOut      Metric = "nights_out"
)

// ChainLevel binds one catalog entry to the stat threshold that completes it.
type ChainLevel struct {
	ID        string
	Threshold int
}

type chainSpec struct {
	metric     Metric
	category   model.Category
	icon       string
	descFmt    string
	ids        [5]string
	titles     [5]string
	thresholds [5]int
}

var chainSpecs = []chainSpec{
	{
		metric:     MetricBeers,
		category:   model.CategoryConsumption,
		icon:       "🍺",
		descFmt:    "Drink %d beers all-time",
		ids:        [5]string{"beer-beginner", "beer-enthusiast", "beer-connoisseur", "beer-master", "beer-legend"},
		titles:     [5]string{"Beer Beginner", "Beer Enthusiast", "Beer Connoisseur", "Beer Master", "Beer Legend"},
		thresholds: [5]int{10, 50, 100, 250, 500},
	},
	{
		metric:     MetricShots,
		category:   model.CategoryConsumption,
		icon:       "🥃",
		descFmt:    "Take %d shots all-time",
		ids:        [5]string{"shot-rookie", "shot-slinger", "shot-veteran", "shot-master", "shot-legend"},
		titles:     [5]string{"Shot Rookie", "Shot Slinger", "Shot Veteran", "Shot Master", "Shot Legend"},
		thresholds: [5]int{10, 50, 100, 250, 500},
	},
	{
		metric:     MetricBeerTowers,
		category:   model.CategoryConsumption,
		icon:       "🗼",
		descFmt:    "Finish %d beer towers",
		ids:        [5]string{"tower-builder", "tower-stacker", "tower-architect", "tower-master", "tower-legend"},
		titles:     [5]string{"Tower Builder", "Tower Stacker", "Tower Architect", "Tower Master", "Tower Legend"},
		thresholds: [5]int{3, 10, 25, 50, 100},
	},
	{
		metric:     MetricScoopAndScores,
		category:   model.CategoryActivities,
		icon:       "🍨",
		descFmt:    "Land %d scoop and scores",
		ids:        [5]string{"scoop-first", "scoop-collector", "scoop-addict", "scoop-master", "scoop-legend"},
		titles:     [5]string{"First Scoop", "Scoop Collector", "Scoop Addict", "Scoop Master", "Scoop Legend"},
		thresholds: [5]int{1, 5, 15, 30, 50},
	},
	{
		metric:     MetricFunnels,
		category:   model.CategoryActivities,
		icon:       "🌪️",
		descFmt:    "Funnel %d drinks",
		ids:        [5]string{"funnel-novice", "funnel-regular", "funnel-pro", "funnel-master", "funnel-legend"},
		titles:     [5]string{"Funnel Novice", "Funnel Regular", "Funnel Pro", "Funnel Master", "Funnel Legend"},
		thresholds: [5]int{3, 10, 25, 50, 100},
	},
	{
		metric:     MetricShotguns,
		category:   model.CategoryActivities,
		icon:       "💥",
		descFmt:    "Shotgun %d cans",
		ids:        [5]string{"shotgun-starter", "shotgun-regular", "shotgun-pro", "shotgun-master", "shotgun-legend"},
		titles:     [5]string{"Shotgun Starter", "Shotgun Regular", "Shotgun Pro", "Shotgun Master", "Shotgun Legend"},
		thresholds: [5]int{3, 10, 25, 50, 100},
	},
	{
		metric:     MetricPoolGamesWon,
		category:   model.CategoryGames,
		icon:       "🎱",
		descFmt:    "Win %d games of pool",
		ids:        [5]string{"pool-winner", "pool-hustler", "pool-shark", "pool-master", "pool-legend"},
		titles:     [5]string{"Pool Winner", "Pool Hustler", "Pool Shark", "Pool Master", "Pool Legend"},
		thresholds: [5]int{3, 10, 25, 50, 100},
	},
	{
		metric:     MetricDartGamesWon,
		category:   model.CategoryGames,
		icon:       "🎯",
		descFmt:    "Win %d games of darts",
		ids:        [5]string{"dart-thrower", "dart-marksman", "dart-sniper", "dart-master", "dart-legend"},
		titles:     [5]string{"Dart Thrower", "Dart Marksman", "Dart Sniper", "Dart Master", "Dart Legend"},
		thresholds: [5]int{3, 10, 25, 50, 100},
	},
	{
		metric:     MetricBarsHit,
		category:   model.CategoryBars,
		icon:       "🏙️",
		descFmt:    "Check in at %d different bars",
		ids:        [5]string{"bar-explorer", "bar-hopper", "bar-crawler", "bar-veteran", "bar-legend"},
		titles:     [5]string{"Bar Explorer", "Bar Hopper", "Bar Crawler", "Bar Veteran", "Bar Legend"},
		thresholds: [5]int{5, 15, 30, 50, 100},
	},
	{
		metric:     MetricNightsOut,
		category:   model.CategoryNights,
		icon:       "🌃",
		descFmt:    "Log %d nights out",
		ids:        [5]string{"night-starter", "night-rider", "night-owl", "night-veteran", "night-legend"},
		titles:     [5]string{"Night Starter", "Night Rider", "Night Owl", "Night Veteran", "Night Legend"},
		thresholds: [5]int{5, 15, 30, 50, 100},
	},
}

// standalone achievements are binary and completed explicitly by callers.
var standalone = []model.Achievement{
	{ID: "first-night-out", Title: "First Night Out", Description: "Log your first night out", Category: model.CategoryMilestones, Icon: "🎉"},
	{ID: "first-friend", Title: "Wingman Acquired", Description: "Add your first friend", Category: model.CategorySocial, Icon: "🤝"},
	{ID: "chat-debut", Title: "Chat Debut", Description: "Send your first message in a venue chat", Category: model.CategorySocial, Icon: "💬"},
	{ID: "early-bird", Title: "Early Bird", Description: "Check in at a bar between 5 and 9 PM", Category: model.CategorySpecial, Icon: "🐦"},
	{ID: "last-call", Title: "Last Call", Description: "Check in at a bar after 1 AM", Category: model.CategorySpecial, Icon: "🌙"},
	{ID: "five-star-night", Title: "Five Star Night", Description: "Use all five daily likes in a single night", Category: model.CategorySpecial, Icon: "⭐"},
}

// Catalog is the full fixed achievement catalog, ordered for display.
// Chains points each metric at its ordered 5-level threshold list.
var (
	Catalog []model.Achievement
	Chains  map[Metric][]ChainLevel

	byID map[string]model.Achievement
)

func init() {
	Chains = make(map[Metric][]ChainLevel, len(chainSpecs))
	order := 0

	for _, cs := range chainSpecs {
		levels := make([]ChainLevel, 0, len(cs.ids))
		for i, id := range cs.ids {
			order++
			a := model.Achievement{
				ID:                  id,
				Title:               cs.titles[i],
				Description:         fmt.Sprintf(cs.descFmt, cs.thresholds[i]),
				DetailedDescription: fmt.Sprintf("Level %d of %d in the %s chain. %s to unlock.", i+1, len(cs.ids), cs.metric, fmt.Sprintf(cs.descFmt, cs.thresholds[i])),
				Category:            cs.category,
				Icon:                cs.icon,
				Order:               order,
				MaxProgress:         cs.thresholds[i],
				Level:               i + 1,
				MultiLevel:          true,
			}
			if i+1 < len(cs.ids) {
				a.NextLevelID = cs.ids[i+1]
			}
			Catalog = append(Catalog, a)
			levels = append(levels, ChainLevel{ID: id, Threshold: cs.thresholds[i]})
		}
		Chains[cs.metric] = levels
	}

	for _, a := range standalone {
		order++
		a.Order = order
		Catalog = append(Catalog, a)
	}

	byID = make(map[string]model.Achievement, len(Catalog))
	for _, a := range Catalog {
		byID[a.ID] = a
	}
}

// Lookup returns the catalog definition for id.
func Lookup(id string) (model.Achievement, bool) {
	a, ok := byID[id]
	return a, ok
}

// previousLevelID returns the id of the level below a in its chain, or ""
// for level 1 and standalone entries.
func previousLevelID(a model.Achievement) string {
	if !a.MultiLevel || a.Level <= 1 {
		return ""
	}
	levels := Chains[metricOf(a.ID)]
	if a.Level-2 >= 0 && a.Level-2 < len(levels) {
		return levels[a.Level-2].ID
	}
	return ""
}

func metricOf(id string) Metric {
	for m, levels := range Chains {
		for _, l := range levels {
			if l.ID == id {
				return m
			}
		}
	}
	return ""
}
