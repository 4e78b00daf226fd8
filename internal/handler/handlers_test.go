package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drewb10/barbuddy/internal/achievement"
	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/database"
	"github.com/drewb10/barbuddy/internal/model"
	"github.com/drewb10/barbuddy/internal/store"
	"github.com/drewb10/barbuddy/internal/venue"
	"github.com/drewb10/barbuddy/internal/websocket"
)

type handlerEnv struct {
	userStore  *store.UserStore
	venueStore *store.VenueStore
	engine     *achievement.Engine
	tracker    *venue.Tracker

	stats  *StatsHandler
	venues *VenueHandler
	achs   *AchievementHandler

	user *model.User
}

func setupHandlerTest(t *testing.T) *handlerEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	userStore := store.NewUserStore(db)
	venueStore := store.NewVenueStore(db)
	statsStore := store.NewStatsStore(db)
	engine := achievement.NewEngine(store.NewAchievementStateStore(db), logger)
	tracker := venue.NewTracker(store.NewVenueInteractionStore(db), nil, logger)
	hub := websocket.NewHub(logger)

	user, err := userStore.Create("Drew", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	engine.Initialize(user.ID)

	return &handlerEnv{
		userStore:  userStore,
		venueStore: venueStore,
		engine:     engine,
		tracker:    tracker,
		stats:      NewStatsHandler(statsStore, userStore, engine, logger),
		venues:     NewVenueHandler(venueStore, userStore, tracker, engine, hub, logger),
		achs:       NewAchievementHandler(engine, logger),
		user:       user,
	}
}

func (env *handlerEnv) request(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithAuth(context.Background(), auth.AuthContext{UserID: env.user.ID, DisplayName: env.user.DisplayName})
	return req.WithContext(ctx)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestStatIncrementsDriveAchievementChains(t *testing.T) {
	env := setupHandlerTest(t)

	// Nine beers across several rounds, then the tenth.
	for _, delta := range []int{3, 3, 3} {
		rec := httptest.NewRecorder()
		env.stats.Increment(rec, env.request(t, "POST", "/api/stats/increment", fmt.Sprintf(`{"stat":"beers","delta":%d}`, delta)))
		if rec.Code != http.StatusOK {
			t.Fatalf("increment: status %d: %s", rec.Code, rec.Body.String())
		}
	}
	if got := env.engine.CompletedCount(env.user.ID); got != 0 {
		t.Fatalf("completed = %d before the threshold", got)
	}

	rec := httptest.NewRecorder()
	env.stats.Increment(rec, env.request(t, "POST", "/api/stats/increment", `{"stat":"beers","delta":1}`))
	st := decode[model.UserStats](t, rec)
	if st.TotalBeers != 10 {
		t.Fatalf("total beers = %d, want 10", st.TotalBeers)
	}

	// Exactly the entry level completes; the next level holds the progress.
	if got := env.engine.CompletedCount(env.user.ID); got != 1 {
		t.Errorf("completed = %d, want 1", got)
	}
	for _, a := range env.engine.All(env.user.ID) {
		switch a.ID {
		case "beer-beginner":
			if !a.Completed {
				t.Error("beer-beginner not completed")
			}
		case "beer-enthusiast":
			if a.Completed || a.Progress != 10 {
				t.Errorf("beer-enthusiast = %+v", a)
			}
		}
	}
}

func TestIncrementRejectsBadInput(t *testing.T) {
	env := setupHandlerTest(t)

	rec := httptest.NewRecorder()
	env.stats.Increment(rec, env.request(t, "POST", "/api/stats/increment", `{"stat":"charisma","delta":1}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown stat: status %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.stats.Increment(rec, env.request(t, "POST", "/api/stats/increment", `{"stat":"beers","delta":-2}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative delta: status %d, want 400", rec.Code)
	}
}

func TestVisitAwardsXP(t *testing.T) {
	env := setupHandlerTest(t)
	v, _ := env.venueStore.Create("Anchor Pub", model.VenueTypeDiveBar, "", "")

	rec := httptest.NewRecorder()
	req := env.request(t, "POST", "/api/venues/"+v.ID+"/visit", `{"arrival_time":"21:15"}`)
	req.SetPathValue("id", v.ID)
	env.venues.Visit(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("visit: status %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[model.VenueInteraction](t, rec)
	if got.Count != 1 || got.ArrivalTime != "21:15" {
		t.Errorf("interaction = %+v", got)
	}

	user, _ := env.userStore.GetByID(env.user.ID)
	if user.XP == 0 {
		t.Error("visit awarded no xp")
	}
}

func TestVisitCheckInWindows(t *testing.T) {
	cases := []struct {
		name   string
		hour   int
		unlock string
	}{
		{"early evening unlocks early bird", 18, "early-bird"},
		{"after hours unlocks last call", 2, "last-call"},
		{"afternoon unlocks nothing", 14, ""},
		{"nine pm is too late for early bird", 21, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupHandlerTest(t)
			v, _ := env.venueStore.Create("Anchor Pub", model.VenueTypeDiveBar, "", "")
			env.venues.now = func() time.Time {
				return time.Date(2026, 3, 7, tc.hour, 30, 0, 0, time.Local)
			}

			rec := httptest.NewRecorder()
			req := env.request(t, "POST", "/api/venues/"+v.ID+"/visit", "")
			req.SetPathValue("id", v.ID)
			env.venues.Visit(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("visit: status %d: %s", rec.Code, rec.Body.String())
			}

			completed := map[string]bool{}
			for _, a := range env.engine.All(env.user.ID) {
				completed[a.ID] = a.Completed
			}
			for _, id := range []string{"early-bird", "last-call"} {
				if want := id == tc.unlock; completed[id] != want {
					t.Errorf("%s completed=%v, want %v", id, completed[id], want)
				}
			}
		})
	}
}

func TestVisitUnknownVenue(t *testing.T) {
	env := setupHandlerTest(t)

	rec := httptest.NewRecorder()
	req := env.request(t, "POST", "/api/venues/nope/visit", "")
	req.SetPathValue("id", "nope")
	env.venues.Visit(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLikeCapReturns429AndUnlocksFiveStarNight(t *testing.T) {
	env := setupHandlerTest(t)
	v, _ := env.venueStore.Create("Mid Club", model.VenueTypeClub, "", "")

	for i := 0; i < venue.DailyLikeCap; i++ {
		rec := httptest.NewRecorder()
		req := env.request(t, "POST", "/api/venues/"+v.ID+"/like", "")
		req.SetPathValue("id", v.ID)
		env.venues.Like(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("like %d: status %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	req := env.request(t, "POST", "/api/venues/"+v.ID+"/like", "")
	req.SetPathValue("id", v.ID)
	env.venues.Like(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("like beyond cap: status %d, want 429", rec.Code)
	}

	// Spending the full budget unlocks the standalone achievement.
	for _, a := range env.engine.All(env.user.ID) {
		if a.ID == "five-star-night" && !a.Completed {
			t.Error("five-star-night not unlocked at the cap")
		}
	}
}

func TestInteractionEndpointReportsEligibility(t *testing.T) {
	env := setupHandlerTest(t)
	v, _ := env.venueStore.Create("Anchor Pub", model.VenueTypeDiveBar, "", "")

	rec := httptest.NewRecorder()
	req := env.request(t, "GET", "/api/venues/"+v.ID+"/interaction", "")
	req.SetPathValue("id", v.ID)
	env.venues.Interaction(rec, req)

	got := decode[interactionResponse](t, rec)
	if !got.CanVisit || !got.CanLike || got.VisitCount != 0 || got.Stale {
		t.Errorf("fresh interaction = %+v", got)
	}
}

func TestCreateVenueClassifiesMissingType(t *testing.T) {
	env := setupHandlerTest(t)

	rec := httptest.NewRecorder()
	env.venues.Create(rec, env.request(t, "POST", "/api/venues", `{"name":"Velvet Speakeasy"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[model.Venue](t, rec)
	if got.Type != model.VenueTypeCocktailBar {
		t.Errorf("type = %q, want cocktail_bar", got.Type)
	}
}

func TestAchievementEndpoints(t *testing.T) {
	env := setupHandlerTest(t)

	rec := httptest.NewRecorder()
	env.achs.All(rec, env.request(t, "GET", "/api/achievements", ""))
	all := decode[[]model.UserAchievement](t, rec)
	if len(all) != len(achievement.Catalog) {
		t.Fatalf("all = %d entries, want %d", len(all), len(achievement.Catalog))
	}

	// Unknown ids no-op but still return the list.
	rec = httptest.NewRecorder()
	req := env.request(t, "PUT", "/api/achievements/not-a-thing/progress", `{"progress":5}`)
	req.SetPathValue("id", "not-a-thing")
	env.achs.UpdateProgress(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("unknown id: status %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = env.request(t, "PUT", "/api/achievements/beer-beginner/progress", `{"progress":10}`)
	req.SetPathValue("id", "beer-beginner")
	env.achs.UpdateProgress(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.achs.Count(rec, env.request(t, "GET", "/api/achievements/count", ""))
	counts := decode[map[string]int](t, rec)
	if counts["completed"] != 1 || counts["total"] != len(achievement.Catalog) {
		t.Errorf("counts = %v", counts)
	}
}

func TestPopupAck(t *testing.T) {
	env := setupHandlerTest(t)

	rec := httptest.NewRecorder()
	env.achs.Popups(rec, env.request(t, "GET", "/api/achievements/popups", ""))
	got := decode[popupResponse](t, rec)
	if !got.ShowEntryPopup {
		t.Error("entry popup not pending for a fresh user")
	}

	rec = httptest.NewRecorder()
	env.achs.AckPopup(rec, env.request(t, "POST", "/api/achievements/popups/ack", `{"kind":"entry"}`))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ack: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.achs.Popups(rec, env.request(t, "GET", "/api/achievements/popups", ""))
	got = decode[popupResponse](t, rec)
	if got.ShowEntryPopup {
		t.Error("entry popup still pending after ack")
	}

	rec = httptest.NewRecorder()
	env.achs.AckPopup(rec, env.request(t, "POST", "/api/achievements/popups/ack", `{"kind":"whatever"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad kind: status %d, want 400", rec.Code)
	}
}
