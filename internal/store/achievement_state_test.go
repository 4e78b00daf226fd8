package store

import (
	"testing"
	"time"

	"github.com/drewb10/barbuddy/internal/database"
	"github.com/drewb10/barbuddy/internal/model"
)

func setupAchievementStateDB(t *testing.T) *AchievementStateStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAchievementStateStore(db)
}

func TestLoadEmptyStateIsNonNil(t *testing.T) {
	s := setupAchievementStateDB(t)

	st, err := s.Load("u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st == nil || st.Entries == nil {
		t.Fatal("empty state should be non-nil with an initialized map")
	}
	if len(st.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(st.Entries))
	}
	if st.EntryPopupShown || st.LastScheduledPopup != "" {
		t.Errorf("flags not zero: %+v", st)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := setupAchievementStateDB(t)

	completedAt := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	st := model.NewAchievementState()
	st.Entries["beer-beginner"] = &model.AchievementProgress{
		AchievementID: "beer-beginner",
		Progress:      10,
		Completed:     true,
		CompletedAt:   &completedAt,
	}
	st.Entries["shot-rookie"] = &model.AchievementProgress{
		AchievementID: "shot-rookie",
		Progress:      4,
	}
	st.EntryPopupShown = true
	st.LastScheduledPopup = "2025-06-01"

	if err := s.Save("u1", st); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load("u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.Entries))
	}

	beer := got.Entries["beer-beginner"]
	if beer == nil || !beer.Completed || beer.Progress != 10 {
		t.Errorf("beer-beginner = %+v", beer)
	}
	if beer.CompletedAt == nil || !beer.CompletedAt.Equal(completedAt) {
		t.Errorf("completed at = %v, want %v", beer.CompletedAt, completedAt)
	}

	shot := got.Entries["shot-rookie"]
	if shot == nil || shot.Completed || shot.Progress != 4 || shot.CompletedAt != nil {
		t.Errorf("shot-rookie = %+v", shot)
	}

	if !got.EntryPopupShown || got.LastScheduledPopup != "2025-06-01" {
		t.Errorf("flags = %v / %q", got.EntryPopupShown, got.LastScheduledPopup)
	}
}

func TestSaveReplacesPreviousRows(t *testing.T) {
	s := setupAchievementStateDB(t)

	st := model.NewAchievementState()
	st.Entries["beer-beginner"] = &model.AchievementProgress{AchievementID: "beer-beginner", Progress: 5}
	st.Entries["shot-rookie"] = &model.AchievementProgress{AchievementID: "shot-rookie", Progress: 2}
	if err := s.Save("u1", st); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Second save carries fewer rows; the old extras must not linger.
	st2 := model.NewAchievementState()
	st2.Entries["beer-beginner"] = &model.AchievementProgress{AchievementID: "beer-beginner", Progress: 8}
	if err := s.Save("u1", st2); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load("u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(got.Entries))
	}
	if got.Entries["beer-beginner"].Progress != 8 {
		t.Errorf("progress = %d, want 8", got.Entries["beer-beginner"].Progress)
	}
}

func TestStateIsPerUser(t *testing.T) {
	s := setupAchievementStateDB(t)

	st := model.NewAchievementState()
	st.Entries["beer-beginner"] = &model.AchievementProgress{AchievementID: "beer-beginner", Progress: 10, Completed: true}
	if err := s.Save("u1", st); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load("u2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Entries) != 0 {
		t.Errorf("u2 sees %d of u1's entries", len(got.Entries))
	}
}
