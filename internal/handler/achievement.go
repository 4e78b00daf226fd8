package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/drewb10/barbuddy/internal/achievement"
	"github.com/drewb10/barbuddy/internal/auth"
)

type AchievementHandler struct {
	engine *achievement.Engine
	logger *slog.Logger
}

func NewAchievementHandler(engine *achievement.Engine, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{engine: engine, logger: logger}
}

// All returns the full catalog merged with the user's progress.
func (h *AchievementHandler) All(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.All(auth.UserID(r.Context())))
}

// Current returns the active target of each chain plus every standalone
// achievement. Exhausted chains contribute nothing.
func (h *AchievementHandler) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.CurrentLevel(auth.UserID(r.Context())))
}

func (h *AchievementHandler) Count(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"completed": h.engine.CompletedCount(auth.UserID(r.Context())),
		"total":     len(achievement.Catalog),
	})
}

type progressRequest struct {
	Progress int `json:"progress"`
}

// UpdateProgress sets the absolute progress of one entry. Unknown ids are a
// silent no-op by design, so the response is always the refreshed list.
func (h *AchievementHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Progress < 0 {
		writeError(w, http.StatusBadRequest, "progress must be non-negative")
		return
	}

	userID := auth.UserID(r.Context())
	h.engine.UpdateProgress(userID, r.PathValue("id"), req.Progress)
	writeJSON(w, http.StatusOK, h.engine.All(userID))
}

// Complete marks a binary achievement done. Progress-tracked entries only
// complete through their threshold, so those ids no-op here too.
func (h *AchievementHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	h.engine.Complete(userID, r.PathValue("id"))
	writeJSON(w, http.StatusOK, h.engine.All(userID))
}

// Reset zeroes every entry and popup flag for the user.
func (h *AchievementHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.engine.ResetAll(auth.UserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

type popupResponse struct {
	ShowEntryPopup     bool `json:"show_entry_popup"`
	ShowScheduledPopup bool `json:"show_scheduled_popup"`
}

// Popups reports which achievement nudges are currently due.
func (h *AchievementHandler) Popups(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	writeJSON(w, http.StatusOK, popupResponse{
		ShowEntryPopup:     h.engine.ShouldShowEntryPopup(userID),
		ShowScheduledPopup: h.engine.ShouldShowScheduledPopup(userID),
	})
}

type popupAckRequest struct {
	Kind string `json:"kind"`
}

// AckPopup records that a popup was displayed. kind is "entry" or "scheduled".
func (h *AchievementHandler) AckPopup(w http.ResponseWriter, r *http.Request) {
	var req popupAckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := auth.UserID(r.Context())
	switch req.Kind {
	case "entry":
		h.engine.MarkEntryPopupShown(userID)
	case "scheduled":
		h.engine.MarkScheduledPopupShown(userID)
	default:
		writeError(w, http.StatusBadRequest, "kind must be entry or scheduled")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
