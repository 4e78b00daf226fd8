package venue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
)

// DailyLikeCap is the per-venue like budget per user per local calendar day.
const DailyLikeCap = 5

// syncTimeout bounds a single background aggregate upsert.
const syncTimeout = 15 * time.Second

// Store persists one user's whole set of venue interaction records. Load
// returns an empty slice when the user has none yet.
type Store interface {
	Load(userID string) ([]model.VenueInteraction, error)
	Save(userID string, recs []model.VenueInteraction) error
}

// Aggregate is the remote cross-device like total. It is display-only and
// eventually consistent; local counters never depend on it.
type Aggregate interface {
	Configured() bool
	UpsertLike(ctx context.Context, venueID, userID string, count int, ts time.Time) error
	ReadGlobalLikes(ctx context.Context) (map[string]int, error)
}

// LikeResult is the typed outcome of RecordLike. The cap is validated inside
// the mutation itself; callers no longer need to pre-check CanLike.
type LikeResult struct {
	Accepted       bool
	DailyLikesUsed int
	// Sync resolves when the background aggregate upsert finishes. Nil when
	// the like was rejected or no aggregate is configured. Local invariants
	// never depend on it; it exists for callers and tests that want to wait.
	Sync <-chan error
}

// Tracker owns per-user, per-venue daily visit and like counters with
// reset-on-touch day rollover, plus a best-effort cache of the remote global
// like aggregate. All mutations are synchronous and atomic per call.
type Tracker struct {
	mu        sync.Mutex
	store     Store
	aggregate Aggregate
	logger    *slog.Logger
	now       func() time.Time

	states      map[string]map[string]*model.VenueInteraction
	globalLikes map[string]int
}

// NewTracker creates a tracker. aggregate may be nil when no remote
// collaborator is configured.
func NewTracker(store Store, aggregate Aggregate, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:       store,
		aggregate:   aggregate,
		logger:      logger,
		now:         time.Now,
		states:      make(map[string]map[string]*model.VenueInteraction),
		globalLikes: make(map[string]int),
	}
}

// SetClock overrides the tracker clock. Intended for tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

func (t *Tracker) dateKey(tm time.Time) string {
	return tm.Format("2006-01-02")
}

// records returns the cached record map for userID, loading from the store
// on first touch. Callers must hold t.mu.
func (t *Tracker) records(userID string) map[string]*model.VenueInteraction {
	if recs, ok := t.states[userID]; ok {
		return recs
	}
	loaded, err := t.store.Load(userID)
	if err != nil {
		t.logger.Error("load venue interactions", "user_id", userID, "error", err)
	}
	recs := make(map[string]*model.VenueInteraction, len(loaded))
	for i := range loaded {
		r := loaded[i]
		recs[r.VenueID] = &r
	}
	t.states[userID] = recs
	return recs
}

func (t *Tracker) save(userID string, recs map[string]*model.VenueInteraction) {
	out := make([]model.VenueInteraction, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r)
	}
	if err := t.store.Save(userID, out); err != nil {
		t.logger.Error("save venue interactions", "user_id", userID, "error", err)
	}
}

// record finds or lazily creates the interaction record for a venue.
// Callers must hold t.mu.
func (t *Tracker) record(userID, venueID string) *model.VenueInteraction {
	recs := t.records(userID)
	if r, ok := recs[venueID]; ok {
		return r
	}
	r := &model.VenueInteraction{VenueID: venueID, CreatedAt: t.now()}
	recs[venueID] = r
	return r
}

// RecordVisit records one visit interaction. A record whose last reset is not
// today is rolled over: the triggering visit becomes count 1 for the new day.
// Visits are unmetered.
func (t *Tracker) RecordVisit(userID, venueID, arrivalTime string) model.VenueInteraction {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	today := t.dateKey(now)

	r := t.record(userID, venueID)
	if r.LastReset != today {
		r.Count = 1
		r.LastReset = today
	} else {
		r.Count++
	}
	r.LastInteraction = now
	if arrivalTime != "" {
		r.ArrivalTime = arrivalTime
	}

	t.save(userID, t.states[userID])
	return *r
}

// RecordLike records one like interaction against the daily budget. The cap
// is checked here, under the same lock as the mutation. On acceptance the
// cached global aggregate is bumped optimistically and a background upsert to
// the remote aggregate is scheduled; its failure is logged, never retried,
// and never rolled back locally.
func (t *Tracker) RecordLike(userID, venueID, timeSlot string) LikeResult {
	t.mu.Lock()

	now := t.now()
	today := t.dateKey(now)

	r := t.record(userID, venueID)
	if r.LastLikeReset == today && r.DailyLikesUsed >= DailyLikeCap {
		used := r.DailyLikesUsed
		t.mu.Unlock()
		return LikeResult{Accepted: false, DailyLikesUsed: used}
	}

	if r.LastLikeReset != today {
		r.Likes = 1
		r.DailyLikesUsed = 1
		r.LastLikeReset = today
	} else {
		r.Likes++
		r.DailyLikesUsed++
	}
	r.LikeTimeSlot = timeSlot
	r.LastInteraction = now

	// Optimistic bump before any remote confirmation.
	t.globalLikes[venueID]++

	t.save(userID, t.states[userID])

	likes := r.Likes
	used := r.DailyLikesUsed
	agg := t.aggregate
	t.mu.Unlock()

	res := LikeResult{Accepted: true, DailyLikesUsed: used}
	if agg != nil && agg.Configured() {
		done := make(chan error, 1)
		res.Sync = done
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
			defer cancel()
			err := agg.UpsertLike(ctx, venueID, userID, likes, now)
			if err != nil {
				t.logger.Warn("like sync failed", "venue_id", venueID, "user_id", userID, "error", err)
			}
			done <- err
			close(done)
		}()
	}
	return res
}

// VisitCount returns today's stored visit counter, 0 when no record exists.
// A stale record reports its last active day until next touched.
func (t *Tracker) VisitCount(userID, venueID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records(userID)[venueID]; ok {
		return r.Count
	}
	return 0
}

// LocalLikeCount returns today's stored like counter, 0 when no record exists.
func (t *Tracker) LocalLikeCount(userID, venueID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records(userID)[venueID]; ok {
		return r.Likes
	}
	return 0
}

// GlobalLikeCount returns the cached remote aggregate for a venue, 0 if it
// was never fetched.
func (t *Tracker) GlobalLikeCount(venueID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.globalLikes[venueID]
}

// CanVisit reports visit eligibility. Visits are unmetered.
func (t *Tracker) CanVisit(userID, venueID string) bool {
	return true
}

// CanLike reports whether the user still has like budget for the venue today.
func (t *Tracker) CanLike(userID, venueID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records(userID)[venueID]
	if !ok {
		return true
	}
	if r.LastLikeReset != t.dateKey(t.now()) {
		return true
	}
	return r.DailyLikesUsed < DailyLikeCap
}

// IsStale reports whether a venue's record predates today. Long-lived display
// surfaces can use this to avoid showing a previous day's counters.
func (t *Tracker) IsStale(userID, venueID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records(userID)[venueID]
	if !ok {
		return false
	}
	return r.LastReset != "" && r.LastReset != t.dateKey(t.now())
}

// RefreshGlobalLikes replaces the whole cached aggregate map from a remote
// read. A missing or unreachable collaborator leaves the cache untouched.
func (t *Tracker) RefreshGlobalLikes(ctx context.Context) error {
	t.mu.Lock()
	agg := t.aggregate
	t.mu.Unlock()

	if agg == nil || !agg.Configured() {
		return nil
	}

	counts, err := agg.ReadGlobalLikes(ctx)
	if err != nil {
		t.logger.Warn("refresh global likes failed", "error", err)
		return err
	}

	// Copy into a fresh map so the cache never aliases (or becomes) whatever
	// the aggregate client returned.
	fresh := make(map[string]int, len(counts))
	for k, v := range counts {
		fresh[k] = v
	}

	t.mu.Lock()
	t.globalLikes = fresh
	t.mu.Unlock()
	return nil
}

// GlobalLikes returns a copy of the whole cached aggregate map.
func (t *Tracker) GlobalLikes() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]int, len(t.globalLikes))
	for k, v := range t.globalLikes {
		out[k] = v
	}
	return out
}

// ResetStaleDailyCounters zeroes the visit counter of every record whose last
// reset predates today. Invoked opportunistically; the equivalent lazy reset
// also happens inside RecordVisit and RecordLike.
func (t *Tracker) ResetStaleDailyCounters(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.dateKey(t.now())
	recs := t.records(userID)
	dirty := false
	for _, r := range recs {
		if r.LastReset != "" && r.LastReset != today {
			r.Count = 0
			r.LastReset = today
			dirty = true
		}
	}
	if dirty {
		t.save(userID, recs)
	}
}

// Interactions returns a copy of every record the user has, for display.
func (t *Tracker) Interactions(userID string) []model.VenueInteraction {
	t.mu.Lock()
	defer t.mu.Unlock()

	recs := t.records(userID)
	out := make([]model.VenueInteraction, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r)
	}
	return out
}
