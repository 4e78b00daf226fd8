package achievement

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
)

// scheduledPopupHour is the local hour at which the daily achievements nudge
// becomes eligible, at most once per calendar day.
const scheduledPopupHour = 3

// Stats is a snapshot of one user's lifetime counters, pushed in whole by the
// stats layer whenever a counter changes. Values are cumulative, not deltas.
type Stats struct {
	TotalBeers          int `json:"total_beers"`
	TotalShots          int `json:"total_shots"`
	TotalBeerTowers     int `json:"total_beer_towers"`
	TotalScoopAndScores int `json:"total_scoop_and_scores"`
	TotalFunnels        int `json:"total_funnels"`
	TotalShotguns       int `json:"total_shotguns"`
	TotalPoolGamesWon   int `json:"total_pool_games_won"`
	TotalDartGamesWon   int `json:"total_dart_games_won"`
	BarsHit             int `json:"bars_hit"`
	NightsOut           int `json:"nights_out"`
}

// Value returns the counter for a metric.
func (s Stats) Value(m Metric) int {
	switch m {
	case MetricBeers:
		return s.TotalBeers
	case MetricShots:
		return s.TotalShots
	case MetricBeerTowers:
		return s.TotalBeerTowers
	case MetricScoopAndScores:
		return s.TotalScoopAndScores
	case MetricFunnels:
		return s.TotalFunnels
	case MetricShotguns:
		return s.TotalShotguns
	case MetricPoolGamesWon:
		return s.TotalPoolGamesWon
	case MetricDartGamesWon:
		return s.TotalDartGamesWon
	case MetricBarsHit:
		return s.BarsHit
	case MetricNightsOut:
		return s.NightsOut
	}
	return 0
}

// Store persists one user's whole achievement state. Load returns an empty
// state (never nil) when the user has no persisted rows yet.
type Store interface {
	Load(userID string) (*model.AchievementState, error)
	Save(userID string, st *model.AchievementState) error
}

// CompletionFunc is invoked after an entry transitions to completed, outside
// of any engine lock processing but before the mutation returns.
type CompletionFunc func(userID string, a model.Achievement)

// Engine owns per-user achievement state. All operations are synchronous and
// atomic per call. Persistence failures are logged and swallowed; the
// in-memory state stays authoritative for the session.
type Engine struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
	now    func() time.Time

	onComplete CompletionFunc

	states map[string]*model.AchievementState
}

// NewEngine creates an achievement engine backed by the given store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
		states: make(map[string]*model.AchievementState),
	}
}

// SetClock overrides the engine clock. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	e.now = now
	e.mu.Unlock()
}

// OnComplete registers a callback fired once per first completion.
func (e *Engine) OnComplete(fn CompletionFunc) {
	e.mu.Lock()
	e.onComplete = fn
	e.mu.Unlock()
}

// state returns the cached state for userID, loading it from the store on
// first touch. Callers must hold e.mu.
func (e *Engine) state(userID string) *model.AchievementState {
	if st, ok := e.states[userID]; ok {
		return st
	}
	st, err := e.store.Load(userID)
	if err != nil {
		e.logger.Error("load achievement state", "user_id", userID, "error", err)
		st = nil
	}
	if st == nil {
		st = model.NewAchievementState()
	}
	if st.Entries == nil {
		st.Entries = make(map[string]*model.AchievementProgress)
	}
	e.states[userID] = st
	return st
}

func (e *Engine) save(userID string, st *model.AchievementState) {
	if err := e.store.Save(userID, st); err != nil {
		e.logger.Error("save achievement state", "user_id", userID, "error", err)
	}
}

// Initialize seeds zero-progress entries for every catalog definition the
// user is missing. Safe to call on every session start; an already-populated
// state is untouched.
func (e *Engine) Initialize(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(userID)
	added := 0
	for _, a := range Catalog {
		if _, ok := st.Entries[a.ID]; !ok {
			st.Entries[a.ID] = &model.AchievementProgress{AchievementID: a.ID}
			added++
		}
	}
	if added > 0 {
		e.save(userID, st)
	}
}

// markCompleted flips an entry to completed and stamps CompletedAt exactly
// once. Re-completion never touches the original timestamp.
func (e *Engine) markCompleted(p *model.AchievementProgress) bool {
	if p.Completed {
		return false
	}
	p.Completed = true
	if p.CompletedAt == nil {
		t := e.now()
		p.CompletedAt = &t
	}
	return true
}

// UpdateProgress sets the stored progress for one entry, clamped to the
// entry's max, completing it when the threshold is reached. Unknown ids are
// silently ignored.
func (e *Engine) UpdateProgress(userID, id string, progress int) {
	e.mu.Lock()
	var completed *model.Achievement

	def, ok := Lookup(id)
	if !ok || progress < 0 {
		e.mu.Unlock()
		return
	}

	st := e.state(userID)
	p := st.Entries[id]
	if p == nil {
		p = &model.AchievementProgress{AchievementID: id}
		st.Entries[id] = p
	}

	if def.MaxProgress > 0 && progress > def.MaxProgress {
		progress = def.MaxProgress
	}
	p.Progress = progress
	if def.MaxProgress > 0 && progress >= def.MaxProgress {
		if e.markCompleted(p) {
			completed = &def
		}
	}
	e.save(userID, st)
	fn := e.onComplete
	e.mu.Unlock()

	if completed != nil && fn != nil {
		fn(userID, *completed)
	}
}

// Complete marks a binary achievement as completed. Unknown ids and
// progress-tracked entries are silently ignored; the latter complete only
// through UpdateProgress reaching their threshold.
func (e *Engine) Complete(userID, id string) {
	e.mu.Lock()
	var completed *model.Achievement

	def, ok := Lookup(id)
	if ok && def.MaxProgress == 0 {
		st := e.state(userID)
		p := st.Entries[id]
		if p == nil {
			p = &model.AchievementProgress{AchievementID: id}
			st.Entries[id] = p
		}
		if e.markCompleted(p) {
			completed = &def
			e.save(userID, st)
		}
	}
	fn := e.onComplete
	e.mu.Unlock()

	if completed != nil && fn != nil {
		fn(userID, *completed)
	}
}

// ReconcileFromStats sweeps every chain level against a full stat snapshot.
// Progress accumulates on a level only once its predecessor is completed, so
// at most one level per chain carries partial progress. The sweep is
// idempotent: repeated calls with the same snapshot leave state unchanged,
// and completion timestamps are never rewritten.
func (e *Engine) ReconcileFromStats(userID string, stats Stats) {
	e.mu.Lock()
	var newlyCompleted []model.Achievement

	st := e.state(userID)
	dirty := false

	for metric, levels := range Chains {
		value := stats.Value(metric)
		unlocked := true
		for _, lvl := range levels {
			p := st.Entries[lvl.ID]
			if p == nil {
				p = &model.AchievementProgress{AchievementID: lvl.ID}
				st.Entries[lvl.ID] = p
			}

			target := 0
			if unlocked {
				target = value
				if target > lvl.Threshold {
					target = lvl.Threshold
				}
			}
			if p.Progress != target {
				p.Progress = target
				dirty = true
			}
			if unlocked && value >= lvl.Threshold && e.markCompleted(p) {
				if def, ok := Lookup(lvl.ID); ok {
					newlyCompleted = append(newlyCompleted, def)
				}
				dirty = true
			}
			unlocked = p.Completed
		}
	}

	if dirty {
		e.save(userID, st)
	}
	fn := e.onComplete
	e.mu.Unlock()

	if fn != nil {
		for _, a := range newlyCompleted {
			fn(userID, a)
		}
	}
}

// CompletedCount returns how many entries the user has completed.
func (e *Engine) CompletedCount(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(userID)
	n := 0
	for _, p := range st.Entries {
		if p.Completed {
			n++
		}
	}
	return n
}

// view merges a catalog definition with the user's progress entry.
func view(a model.Achievement, p *model.AchievementProgress) model.UserAchievement {
	ua := model.UserAchievement{Achievement: a}
	if p != nil {
		ua.Progress = p.Progress
		ua.Completed = p.Completed
		ua.CompletedAt = p.CompletedAt
	}
	return ua
}

// All returns the full catalog with the user's progress, in display order.
func (e *Engine) All(userID string) []model.UserAchievement {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(userID)
	out := make([]model.UserAchievement, 0, len(Catalog))
	for _, a := range Catalog {
		out = append(out, view(a, st.Entries[a.ID]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// CurrentLevel returns the active target per chain — the lowest incomplete
// level whose predecessor is done — plus every standalone achievement. A
// fully exhausted chain contributes nothing.
func (e *Engine) CurrentLevel(userID string) []model.UserAchievement {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(userID)
	completed := func(id string) bool {
		p := st.Entries[id]
		return p != nil && p.Completed
	}

	var out []model.UserAchievement
	for _, a := range Catalog {
		if !a.MultiLevel {
			out = append(out, view(a, st.Entries[a.ID]))
			continue
		}
		if completed(a.ID) {
			continue
		}
		if prev := previousLevelID(a); prev != "" && !completed(prev) {
			continue
		}
		out = append(out, view(a, st.Entries[a.ID]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ResetAll restores every entry to its zero state and clears popup
// bookkeeping. The catalog itself is untouched.
func (e *Engine) ResetAll(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(userID)
	for _, p := range st.Entries {
		p.Progress = 0
		p.Completed = false
		p.CompletedAt = nil
	}
	st.EntryPopupShown = false
	st.LastScheduledPopup = ""
	e.save(userID, st)
}

// ShouldShowEntryPopup reports whether the one-shot introductory popup is
// still pending for this user.
func (e *Engine) ShouldShowEntryPopup(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.state(userID).EntryPopupShown
}

// MarkEntryPopupShown records that the introductory popup was displayed.
func (e *Engine) MarkEntryPopupShown(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(userID)
	if st.EntryPopupShown {
		return
	}
	st.EntryPopupShown = true
	e.save(userID, st)
}

// ShouldShowScheduledPopup reports whether the daily nudge is due: the local
// hour equals the trigger hour and no popup was recorded today. Comparison is
// by local calendar date, not elapsed time.
func (e *Engine) ShouldShowScheduledPopup(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if now.Hour() != scheduledPopupHour {
		return false
	}
	return e.state(userID).LastScheduledPopup != dateKey(now)
}

// MarkScheduledPopupShown records the daily nudge for today.
func (e *Engine) MarkScheduledPopupShown(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state(userID)
	today := dateKey(e.now())
	if st.LastScheduledPopup == today {
		return
	}
	st.LastScheduledPopup = today
	e.save(userID, st)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
