package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/drewb10/barbuddy/internal/achievement"
	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/model"
	"github.com/drewb10/barbuddy/internal/store"
)

type FriendHandler struct {
	friendStore *store.FriendStore
	userStore   *store.UserStore
	engine      *achievement.Engine
	logger      *slog.Logger
}

func NewFriendHandler(fs *store.FriendStore, us *store.UserStore, engine *achievement.Engine, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{friendStore: fs, userStore: us, engine: engine, logger: logger}
}

type friendRequestBody struct {
	UserID string `json:"user_id"`
}

func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req friendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	target, err := h.userStore.GetByID(req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	f, err := h.friendStore.Request(auth.UserID(r.Context()), req.UserID)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

// Respond resolves a pending friend request. Acceptance unlocks the
// first-friend achievement for both sides.
func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	f, err := h.friendStore.Respond(id, auth.UserID(r.Context()), req.Accept)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	if f.Status == model.FriendshipAccepted {
		h.engine.Complete(f.RequesterID, "first-friend")
		h.engine.Complete(f.AddresseeID, "first-friend")
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friendStore.ListFriends(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list friends", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list friends")
		return
	}
	if friends == nil {
		friends = []model.User{}
	}
	writeJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.friendStore.ListPending(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list pending requests", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pending requests")
		return
	}
	if reqs == nil {
		reqs = []model.Friendship{}
	}
	writeJSON(w, http.StatusOK, reqs)
}
