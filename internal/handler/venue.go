package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/drewb10/barbuddy/internal/achievement"
	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/model"
	"github.com/drewb10/barbuddy/internal/store"
	"github.com/drewb10/barbuddy/internal/venue"
	"github.com/drewb10/barbuddy/internal/websocket"
	"github.com/drewb10/barbuddy/internal/xp"
)

type VenueHandler struct {
	venueStore *store.VenueStore
	userStore  *store.UserStore
	tracker    *venue.Tracker
	engine     *achievement.Engine
	hub        *websocket.Hub
	logger     *slog.Logger
	now        func() time.Time
}

func NewVenueHandler(vs *store.VenueStore, us *store.UserStore, tracker *venue.Tracker, engine *achievement.Engine, hub *websocket.Hub, logger *slog.Logger) *VenueHandler {
	return &VenueHandler{venueStore: vs, userStore: us, tracker: tracker, engine: engine, hub: hub, logger: logger, now: time.Now}
}

type venueRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Address   string `json:"address"`
	OpenHours string `json:"open_hours"`
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	vt := model.VenueType(req.Type)
	if req.Type == "" {
		vt = venue.ClassifyType(req.Name)
	}

	v, err := h.venueStore.Create(req.Name, vt, req.Address, req.OpenHours)
	if err != nil {
		h.logger.Error("create venue", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create venue")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		venues []model.Venue
		err    error
	)
	if vt := r.URL.Query().Get("type"); vt != "" {
		venues, err = h.venueStore.ListByType(model.VenueType(vt))
	} else {
		venues, err = h.venueStore.List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list venues")
		return
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	writeJSON(w, http.StatusOK, venues)
}

func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.venueStore.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get venue")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "venue not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type visitRequest struct {
	ArrivalTime string `json:"arrival_time"`
}

// Visit records a check-in at a venue. Visits are unmetered; a stale daily
// counter rolls over on this touch.
func (h *VenueHandler) Visit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	venueID := r.PathValue("id")

	v, err := h.venueStore.GetByID(venueID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get venue")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "venue not found")
		return
	}

	var req visitRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	rec := h.tracker.RecordVisit(userID, venueID, req.ArrivalTime)

	if _, err := h.userStore.AddXP(userID, xp.VisitXP); err != nil {
		h.logger.Error("award visit xp", "user_id", userID, "error", err)
	}

	switch hour := h.now().Hour(); {
	case hour >= 17 && hour < 21:
		h.engine.Complete(userID, "early-bird")
	case hour >= 1 && hour < 5:
		h.engine.Complete(userID, "last-call")
	}

	writeJSON(w, http.StatusOK, rec)
}

type likeRequest struct {
	TimeSlot string `json:"time_slot"`
}

type likeResponse struct {
	Accepted        bool `json:"accepted"`
	DailyLikesUsed  int  `json:"daily_likes_used"`
	LocalLikeCount  int  `json:"local_like_count"`
	GlobalLikeCount int  `json:"global_like_count"`
}

// Like spends one unit of the venue's daily like budget. The budget check
// happens inside the tracker mutation; an exhausted budget is a 429.
func (h *VenueHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	venueID := r.PathValue("id")

	v, err := h.venueStore.GetByID(venueID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get venue")
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "venue not found")
		return
	}

	var req likeRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	result := h.tracker.RecordLike(userID, venueID, req.TimeSlot)
	if !result.Accepted {
		writeError(w, http.StatusTooManyRequests, "daily like limit reached")
		return
	}

	if _, err := h.userStore.AddXP(userID, xp.LikeXP); err != nil {
		h.logger.Error("award like xp", "user_id", userID, "error", err)
	}
	if result.DailyLikesUsed >= venue.DailyLikeCap {
		h.engine.Complete(userID, "five-star-night")
	}

	global := h.tracker.GlobalLikeCount(venueID)
	h.hub.Broadcast(venueID, websocket.Message{
		Type:      "venue_liked",
		VenueID:   venueID,
		Timestamp: time.Now().UTC(),
		Extra:     map[string]any{"global_like_count": global},
	})

	writeJSON(w, http.StatusOK, likeResponse{
		Accepted:        true,
		DailyLikesUsed:  result.DailyLikesUsed,
		LocalLikeCount:  h.tracker.LocalLikeCount(userID, venueID),
		GlobalLikeCount: global,
	})
}

type interactionResponse struct {
	VenueID         string `json:"venue_id"`
	VisitCount      int    `json:"visit_count"`
	LocalLikeCount  int    `json:"local_like_count"`
	GlobalLikeCount int    `json:"global_like_count"`
	CanLike         bool   `json:"can_like"`
	CanVisit        bool   `json:"can_visit"`
	Stale           bool   `json:"stale"`
}

// Interaction returns today's counters and eligibility for one venue.
func (h *VenueHandler) Interaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	venueID := r.PathValue("id")

	writeJSON(w, http.StatusOK, interactionResponse{
		VenueID:         venueID,
		VisitCount:      h.tracker.VisitCount(userID, venueID),
		LocalLikeCount:  h.tracker.LocalLikeCount(userID, venueID),
		GlobalLikeCount: h.tracker.GlobalLikeCount(venueID),
		CanLike:         h.tracker.CanLike(userID, venueID),
		CanVisit:        h.tracker.CanVisit(userID, venueID),
		Stale:           h.tracker.IsStale(userID, venueID),
	})
}

// Interactions returns every venue record the user has.
func (h *VenueHandler) Interactions(w http.ResponseWriter, r *http.Request) {
	recs := h.tracker.Interactions(auth.UserID(r.Context()))
	if recs == nil {
		recs = []model.VenueInteraction{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// RefreshGlobalLikes re-reads the remote aggregate. Unreachable or
// unconfigured collaborators leave the cache untouched and still return it.
func (h *VenueHandler) RefreshGlobalLikes(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.RefreshGlobalLikes(r.Context()); err != nil {
		h.logger.Warn("refresh global likes", "error", err)
	}
	writeJSON(w, http.StatusOK, h.tracker.GlobalLikes())
}

// ResetStale zeroes stale daily visit counters for the user.
func (h *VenueHandler) ResetStale(w http.ResponseWriter, r *http.Request) {
	h.tracker.ResetStaleDailyCounters(auth.UserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
