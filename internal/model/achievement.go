package model

import "time"

// Category groups achievements for display.
type Category string

const (
	CategoryBars        Category = "bars"
	CategoryActivities  Category = "activities"
	CategorySocial      Category = "social"
	CategoryMilestones  Category = "milestones"
	CategorySpecial     Category = "special"
	CategoryConsumption Category = "consumption"
	CategoryNights      Category = "nights"
	CategoryGames       Category = "games"
)

// Achievement is a catalog definition. Definitions are fixed at compile time;
// per-user state lives in AchievementProgress.
type Achievement struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	DetailedDescription string   `json:"detailed_description,omitempty"`
	Category            Category `json:"category"`
	Icon                string   `json:"icon"`
	Order               int      `json:"order"`
	MaxProgress         int      `json:"max_progress,omitempty"` // 0 means binary (no progress bar)
	Level               int      `json:"level,omitempty"`        // 1-based position in a chain, 0 for standalone
	MultiLevel          bool     `json:"is_multi_level,omitempty"`
	NextLevelID         string   `json:"next_level_id,omitempty"`
}

// AchievementProgress is the mutable per-user state for one catalog entry.
type AchievementProgress struct {
	AchievementID string     `json:"achievement_id"`
	Progress      int        `json:"progress"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// AchievementState is the whole persisted achievement record for one user:
// progress for every catalog entry plus popup bookkeeping. It is read as a
// unit on first touch and written back as a unit on every mutation.
type AchievementState struct {
	Entries            map[string]*AchievementProgress
	EntryPopupShown    bool
	LastScheduledPopup string // YYYY-MM-DD of the last scheduled popup, empty if never
}

// NewAchievementState returns an empty state with an allocated entry map.
func NewAchievementState() *AchievementState {
	return &AchievementState{Entries: make(map[string]*AchievementProgress)}
}

// UserAchievement merges a catalog definition with one user's progress for
// API responses.
type UserAchievement struct {
	Achievement
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
