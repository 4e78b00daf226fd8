package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/drewb10/barbuddy/internal/achievement"
	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/model"
	"github.com/drewb10/barbuddy/internal/store"
	"github.com/drewb10/barbuddy/internal/xp"
)

type ProfileHandler struct {
	userStore *store.UserStore
	engine    *achievement.Engine
	issuer    *auth.TokenIssuer
	logger    *slog.Logger
}

func NewProfileHandler(us *store.UserStore, engine *achievement.Engine, issuer *auth.TokenIssuer, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{userStore: us, engine: engine, issuer: issuer, logger: logger}
}

type registerRequest struct {
	DisplayName   string `json:"display_name"`
	FavoriteDrink string `json:"favorite_drink"`
}

type registerResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates a profile, seeds its achievement catalog, and mints the
// device token the client uses from then on.
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	user, err := h.userStore.Create(req.DisplayName, strings.TrimSpace(req.FavoriteDrink))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	h.engine.Initialize(user.ID)

	token, err := h.issuer.Mint(user.ID)
	if err != nil {
		h.logger.Error("mint token", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{User: user, Token: token})
}

// Me returns the authenticated user's profile.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	DisplayName   string `json:"display_name"`
	FavoriteDrink string `json:"favorite_drink"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}

	user, err := h.userStore.Update(auth.UserID(r.Context()), req.DisplayName, strings.TrimSpace(req.FavoriteDrink))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type rankResponse struct {
	XP       int     `json:"xp"`
	Rank     xp.Rank `json:"rank"`
	NextRank *xp.Rank `json:"next_rank,omitempty"`
	Progress float64 `json:"progress"`
}

// Rank returns the user's progression ladder position.
func (h *ProfileHandler) Rank(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}

	resp := rankResponse{
		XP:       user.XP,
		Rank:     xp.RankForXP(user.XP),
		Progress: xp.Progress(user.XP),
	}
	if next, ok := xp.NextRank(user.XP); ok {
		resp.NextRank = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// Leaderboard returns users ranked by XP.
func (h *ProfileHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.Leaderboard(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get leaderboard")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
