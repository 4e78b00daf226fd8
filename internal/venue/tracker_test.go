package venue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/drewb10/barbuddy/internal/model"
)

type memVenueStore struct {
	mu     sync.Mutex
	states map[string][]model.VenueInteraction
	saves  int
}

func newMemVenueStore() *memVenueStore {
	return &memVenueStore{states: make(map[string][]model.VenueInteraction)}
}

func (m *memVenueStore) Load(userID string) ([]model.VenueInteraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID], nil
}

func (m *memVenueStore) Save(userID string, recs []model.VenueInteraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = recs
	m.saves++
	return nil
}

// fakeAggregate records upserts and serves a canned global map.
type fakeAggregate struct {
	mu      sync.Mutex
	upserts int
	fail    bool
	global  map[string]int
}

func (f *fakeAggregate) Configured() bool { return true }

func (f *fakeAggregate) UpsertLike(ctx context.Context, venueID, userID string, count int, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.fail {
		return errors.New("aggregate unavailable")
	}
	return nil
}

func (f *fakeAggregate) ReadGlobalLikes(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("aggregate unavailable")
	}
	return f.global, nil
}

func testTracker(t *testing.T, agg Aggregate) (*Tracker, *memVenueStore) {
	t.Helper()
	store := newMemVenueStore()
	tr := NewTracker(store, agg, slog.Default())
	return tr, store
}

func TestRecordVisitCountsWithinDay(t *testing.T) {
	tr, _ := testTracker(t, nil)

	tr.RecordVisit("u1", "v1", "")
	tr.RecordVisit("u1", "v1", "22:30")
	rec := tr.RecordVisit("u1", "v1", "")

	if rec.Count != 3 {
		t.Errorf("visit count = %d, want 3", rec.Count)
	}
	if rec.ArrivalTime != "22:30" {
		t.Errorf("arrival time = %q, want last non-empty value kept", rec.ArrivalTime)
	}
	if got := tr.VisitCount("u1", "v1"); got != 3 {
		t.Errorf("VisitCount = %d, want 3", got)
	}
}

func TestVisitRollsOverOnNewDay(t *testing.T) {
	tr, _ := testTracker(t, nil)
	clock := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	tr.SetClock(func() time.Time { return clock })

	tr.RecordVisit("u1", "v1", "")
	tr.RecordVisit("u1", "v1", "")

	// Counter stays visible until the next touch.
	clock = clock.Add(26 * time.Hour)
	if !tr.IsStale("u1", "v1") {
		t.Fatal("record should read stale on a new day")
	}
	if got := tr.VisitCount("u1", "v1"); got != 2 {
		t.Errorf("untouched stale counter = %d, want 2", got)
	}

	// The triggering visit becomes count 1 for the new day.
	rec := tr.RecordVisit("u1", "v1", "")
	if rec.Count != 1 {
		t.Errorf("rolled-over count = %d, want 1", rec.Count)
	}
	if tr.IsStale("u1", "v1") {
		t.Error("record still stale after rollover")
	}
}

func TestDailyLikeCap(t *testing.T) {
	tr, _ := testTracker(t, nil)

	for i := 0; i < DailyLikeCap; i++ {
		res := tr.RecordLike("u1", "v1", "")
		if !res.Accepted {
			t.Fatalf("like %d rejected before the cap", i+1)
		}
	}
	if tr.CanLike("u1", "v1") {
		t.Error("CanLike true at the cap")
	}

	res := tr.RecordLike("u1", "v1", "")
	if res.Accepted {
		t.Fatal("like accepted beyond the cap")
	}
	if res.DailyLikesUsed != DailyLikeCap {
		t.Errorf("rejected result reports %d used, want %d", res.DailyLikesUsed, DailyLikeCap)
	}
	if got := tr.LocalLikeCount("u1", "v1"); got != DailyLikeCap {
		t.Errorf("local like count = %d, want %d", got, DailyLikeCap)
	}
}

func TestLikeBudgetIsPerVenue(t *testing.T) {
	tr, _ := testTracker(t, nil)

	for i := 0; i < DailyLikeCap; i++ {
		tr.RecordLike("u1", "v1", "")
	}
	if res := tr.RecordLike("u1", "v2", ""); !res.Accepted {
		t.Error("exhausting one venue's budget blocked another venue")
	}
}

func TestLikeBudgetResetsNextDay(t *testing.T) {
	tr, _ := testTracker(t, nil)
	clock := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	tr.SetClock(func() time.Time { return clock })

	for i := 0; i < DailyLikeCap; i++ {
		tr.RecordLike("u1", "v1", "")
	}

	clock = clock.Add(24 * time.Hour)
	if !tr.CanLike("u1", "v1") {
		t.Fatal("budget not restored on a new day")
	}
	res := tr.RecordLike("u1", "v1", "late")
	if !res.Accepted || res.DailyLikesUsed != 1 {
		t.Errorf("rolled-over like: accepted=%v used=%d, want true / 1", res.Accepted, res.DailyLikesUsed)
	}
	if got := tr.LocalLikeCount("u1", "v1"); got != 1 {
		t.Errorf("local like count after rollover = %d, want 1", got)
	}
}

func TestLikeBumpsGlobalOptimistically(t *testing.T) {
	agg := &fakeAggregate{fail: true}
	tr, _ := testTracker(t, agg)

	res := tr.RecordLike("u1", "v1", "")
	if !res.Accepted {
		t.Fatal("like rejected")
	}
	// The bump happens before (and regardless of) remote confirmation.
	if got := tr.GlobalLikeCount("v1"); got != 1 {
		t.Errorf("global like count = %d, want optimistic 1", got)
	}

	if res.Sync == nil {
		t.Fatal("expected a sync channel with a configured aggregate")
	}
	if err := <-res.Sync; err == nil {
		t.Error("expected the failed upsert to surface on Sync")
	}
	// The failure is not rolled back locally.
	if got := tr.GlobalLikeCount("v1"); got != 1 {
		t.Errorf("global like count after failed sync = %d, want 1", got)
	}
	if got := tr.LocalLikeCount("u1", "v1"); got != 1 {
		t.Errorf("local like count after failed sync = %d, want 1", got)
	}
}

func TestLikeWithoutAggregateHasNoSyncChannel(t *testing.T) {
	tr, _ := testTracker(t, nil)
	res := tr.RecordLike("u1", "v1", "")
	if !res.Accepted {
		t.Fatal("like rejected")
	}
	if res.Sync != nil {
		t.Error("sync channel present without an aggregate")
	}
}

func TestRefreshGlobalLikesReplacesWholeMap(t *testing.T) {
	agg := &fakeAggregate{global: map[string]int{"v1": 40, "v2": 7}}
	tr, _ := testTracker(t, agg)

	tr.RecordLike("u1", "v3", "")
	if err := tr.RefreshGlobalLikes(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if got := tr.GlobalLikeCount("v1"); got != 40 {
		t.Errorf("v1 = %d, want 40", got)
	}
	// Full replace: venues absent from the remote read drop to zero.
	if got := tr.GlobalLikeCount("v3"); got != 0 {
		t.Errorf("v3 = %d, want 0 after full replace", got)
	}
}

func TestRefreshCopiesAndToleratesNilRead(t *testing.T) {
	remote := map[string]int{"v1": 12}
	agg := &fakeAggregate{global: remote}
	tr, _ := testTracker(t, agg)

	if err := tr.RefreshGlobalLikes(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Cache must not alias the map the aggregate handed back.
	remote["v1"] = 999
	if got := tr.GlobalLikeCount("v1"); got != 12 {
		t.Errorf("v1 = %d, want 12 after mutating the remote map", got)
	}

	// A nil read installs an empty cache and later bumps still work.
	agg.mu.Lock()
	agg.global = nil
	agg.mu.Unlock()
	if err := tr.RefreshGlobalLikes(context.Background()); err != nil {
		t.Fatalf("refresh with nil read: %v", err)
	}
	res := tr.RecordLike("u1", "v1", "")
	if !res.Accepted {
		t.Fatal("like rejected after nil refresh")
	}
	if got := tr.GlobalLikeCount("v1"); got != 1 {
		t.Errorf("v1 = %d, want 1 after optimistic bump", got)
	}
}

func TestRefreshFailureLeavesCacheUntouched(t *testing.T) {
	agg := &fakeAggregate{fail: true}
	tr, _ := testTracker(t, agg)

	tr.RecordLike("u1", "v1", "")
	if err := tr.RefreshGlobalLikes(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if got := tr.GlobalLikeCount("v1"); got != 1 {
		t.Errorf("cache mutated on failed refresh: %d", got)
	}
}

func TestResetStaleDailyCounters(t *testing.T) {
	tr, _ := testTracker(t, nil)
	clock := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	tr.SetClock(func() time.Time { return clock })

	tr.RecordVisit("u1", "v1", "")
	tr.RecordVisit("u1", "v2", "")
	tr.RecordLike("u1", "v1", "")

	clock = clock.Add(30 * time.Hour)
	tr.ResetStaleDailyCounters("u1")

	if got := tr.VisitCount("u1", "v1"); got != 0 {
		t.Errorf("v1 visit count = %d, want 0", got)
	}
	if got := tr.VisitCount("u1", "v2"); got != 0 {
		t.Errorf("v2 visit count = %d, want 0", got)
	}
	if tr.IsStale("u1", "v1") {
		t.Error("record still stale after reset")
	}
	// Like counters reset lazily on the next like, not here.
	if !tr.CanLike("u1", "v1") {
		t.Error("like budget not available on the new day")
	}
}

func TestInteractionsSurviveRestart(t *testing.T) {
	store := newMemVenueStore()
	tr := NewTracker(store, nil, slog.Default())
	tr.RecordVisit("u1", "v1", "21:00")
	tr.RecordLike("u1", "v1", "")

	tr2 := NewTracker(store, nil, slog.Default())
	if got := tr2.VisitCount("u1", "v1"); got != 1 {
		t.Errorf("visit count after restart = %d, want 1", got)
	}
	if got := tr2.LocalLikeCount("u1", "v1"); got != 1 {
		t.Errorf("like count after restart = %d, want 1", got)
	}
}
