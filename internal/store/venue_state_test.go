package store

import (
	"testing"
	"time"

	"github.com/drewb10/barbuddy/internal/database"
	"github.com/drewb10/barbuddy/internal/model"
)

func setupVenueInteractionDB(t *testing.T) *VenueInteractionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVenueInteractionStore(db)
}

func TestVenueInteractionRoundTrip(t *testing.T) {
	s := setupVenueInteractionDB(t)

	now := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	recs := []model.VenueInteraction{
		{
			VenueID:         "v1",
			Count:           3,
			LastReset:       "2025-06-01",
			LastInteraction: now,
			ArrivalTime:     "21:30",
			Likes:           2,
			LastLikeReset:   "2025-06-01",
			DailyLikesUsed:  2,
			LikeTimeSlot:    "late",
			CreatedAt:       now,
		},
		{VenueID: "v2", Count: 1, LastReset: "2025-06-01", CreatedAt: now},
	}

	if err := s.Save("u1", recs); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load("u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}

	byVenue := make(map[string]model.VenueInteraction)
	for _, r := range got {
		byVenue[r.VenueID] = r
	}

	v1 := byVenue["v1"]
	if v1.Count != 3 || v1.Likes != 2 || v1.DailyLikesUsed != 2 {
		t.Errorf("v1 = %+v", v1)
	}
	if v1.LastReset != "2025-06-01" || v1.ArrivalTime != "21:30" || v1.LikeTimeSlot != "late" {
		t.Errorf("v1 strings = %+v", v1)
	}
	if !v1.LastInteraction.Equal(now) {
		t.Errorf("last interaction = %v, want %v", v1.LastInteraction, now)
	}

	v2 := byVenue["v2"]
	if !v2.LastInteraction.IsZero() {
		t.Errorf("zero last interaction round-tripped as %v", v2.LastInteraction)
	}
}

func TestVenueInteractionSaveReplaces(t *testing.T) {
	s := setupVenueInteractionDB(t)

	if err := s.Save("u1", []model.VenueInteraction{
		{VenueID: "v1", Count: 1, CreatedAt: time.Now().UTC()},
		{VenueID: "v2", Count: 2, CreatedAt: time.Now().UTC()},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := s.Save("u1", []model.VenueInteraction{
		{VenueID: "v1", Count: 5, CreatedAt: time.Now().UTC()},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load("u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].VenueID != "v1" || got[0].Count != 5 {
		t.Errorf("got = %+v", got)
	}
}

func TestVenueInteractionLoadEmpty(t *testing.T) {
	s := setupVenueInteractionDB(t)

	got, err := s.Load("nobody")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("records = %d, want 0", len(got))
	}
}
