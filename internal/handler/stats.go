package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/drewb10/barbuddy/internal/achievement"
	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/model"
	"github.com/drewb10/barbuddy/internal/store"
	"github.com/drewb10/barbuddy/internal/xp"
)

type StatsHandler struct {
	statsStore *store.StatsStore
	userStore  *store.UserStore
	engine     *achievement.Engine
	logger     *slog.Logger
}

func NewStatsHandler(ss *store.StatsStore, us *store.UserStore, engine *achievement.Engine, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{statsStore: ss, userStore: us, engine: engine, logger: logger}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.statsStore.Get(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type incrementRequest struct {
	Stat  string `json:"stat"`
	Delta int    `json:"delta"`
}

// Increment bumps one lifetime counter and sweeps the achievement chains
// against the new snapshot. A zero delta is treated as 1.
func (h *StatsHandler) Increment(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !store.ValidStat(req.Stat) {
		writeError(w, http.StatusBadRequest, "unknown stat")
		return
	}
	if req.Delta < 0 {
		writeError(w, http.StatusBadRequest, "delta must be non-negative")
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	userID := auth.UserID(r.Context())
	st, err := h.statsStore.Increment(userID, req.Stat, req.Delta)
	if err != nil {
		h.logger.Error("increment stat", "stat", req.Stat, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to increment stat")
		return
	}

	award := xp.StatXP * req.Delta
	if req.Stat == "nights_out" {
		award = xp.NightOutXP * req.Delta
		h.engine.Complete(userID, "first-night-out")
	}
	if _, err := h.userStore.AddXP(userID, award); err != nil {
		h.logger.Error("award stat xp", "user_id", userID, "error", err)
	}

	h.engine.ReconcileFromStats(userID, snapshot(st))
	writeJSON(w, http.StatusOK, st)
}

// Reconcile re-runs the chain sweep from the stored counters without
// mutating them. Used after restores or manual corrections.
func (h *StatsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	st, err := h.statsStore.Get(userID)
	if err != nil {
		h.logger.Error("get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	h.engine.ReconcileFromStats(userID, snapshot(st))
	writeJSON(w, http.StatusOK, h.engine.All(userID))
}

func snapshot(st *model.UserStats) achievement.Stats {
	return achievement.Stats{
		TotalBeers:          st.TotalBeers,
		TotalShots:          st.TotalShots,
		TotalBeerTowers:     st.TotalBeerTowers,
		TotalScoopAndScores: st.TotalScoopAndScores,
		TotalFunnels:        st.TotalFunnels,
		TotalShotguns:       st.TotalShotguns,
		TotalPoolGamesWon:   st.TotalPoolGamesWon,
		TotalDartGamesWon:   st.TotalDartGamesWon,
		BarsHit:             st.BarsHit,
		NightsOut:           st.NightsOut,
	}
}
