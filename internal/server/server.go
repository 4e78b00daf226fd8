package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/drewb10/barbuddy/internal/achievement"
	"github.com/drewb10/barbuddy/internal/aggregate"
	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/backup"
	"github.com/drewb10/barbuddy/internal/handler"
	"github.com/drewb10/barbuddy/internal/middleware"
	"github.com/drewb10/barbuddy/internal/model"
	"github.com/drewb10/barbuddy/internal/store"
	"github.com/drewb10/barbuddy/internal/venue"
	ws "github.com/drewb10/barbuddy/internal/websocket"
	"github.com/drewb10/barbuddy/internal/xp"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	profileH      *handler.ProfileHandler
	venueH        *handler.VenueHandler
	achievementH  *handler.AchievementHandler
	statsH        *handler.StatsHandler
	friendH       *handler.FriendHandler
	chatH         *handler.ChatHandler
	backupH       *handler.BackupHandler
	userStore     *store.UserStore
	chatStore     *store.ChatStore
	tokenIssuer   *auth.TokenIssuer
	rateLimiter   *middleware.RateLimiter
	engine        *achievement.Engine
	tracker       *venue.Tracker
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, tokenSecret string, aggregateCfg aggregate.Config, backupCfg backup.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	statsStore := store.NewStatsStore(db)
	venueStore := store.NewVenueStore(db)
	friendStore := store.NewFriendStore(db)
	chatStore := store.NewChatStore(db)

	engine := achievement.NewEngine(
		store.NewAchievementStateStore(db),
		logger.With("component", "achievements"),
	)
	engine.OnComplete(func(userID string, a model.Achievement) {
		if _, err := userStore.AddXP(userID, xp.AchievementXP); err != nil {
			logger.Error("award achievement xp", "user_id", userID, "achievement", a.ID, "error", err)
			return
		}
		logger.Info("achievement completed", "user_id", userID, "achievement", a.ID)
	})

	aggClient := aggregate.NewClient(aggregateCfg, logger.With("component", "aggregate"))
	tracker := venue.NewTracker(
		store.NewVenueInteractionStore(db),
		aggClient,
		logger.With("component", "venues"),
	)

	chatLogger := logger.With("component", "chat")
	hub.OnInbound(func(c *ws.Client, body string) {
		sess := &model.ChatSession{ID: c.SessionID(), UserID: c.UserID(), VenueID: c.VenueID(), Handle: c.Handle()}
		msg, err := chatStore.AddMessage(sess, body)
		if err != nil {
			chatLogger.Error("persist chat message", "venue_id", c.VenueID(), "error", err)
			return
		}
		hub.Broadcast(c.VenueID(), ws.Message{
			Type:      "chat_message",
			VenueID:   msg.VenueID,
			Handle:    msg.Handle,
			Body:      msg.Body,
			Timestamp: msg.CreatedAt,
		})
		if n, err := chatStore.CountMessagesBySession(c.SessionID()); err == nil && n == 1 {
			engine.Complete(c.UserID(), "chat-debut")
		}
		if err := chatStore.TrimHistory(c.VenueID()); err != nil {
			chatLogger.Warn("trim chat history", "venue_id", c.VenueID(), "error", err)
		}
	})

	issuer := auth.NewTokenIssuer(tokenSecret)
	backupMgr := backup.NewManager(backupCfg, db, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		profileH:      handler.NewProfileHandler(userStore, engine, issuer, logger.With("component", "profile")),
		venueH:        handler.NewVenueHandler(venueStore, userStore, tracker, engine, hub, logger.With("component", "venue")),
		achievementH:  handler.NewAchievementHandler(engine, logger.With("component", "achievement")),
		statsH:        handler.NewStatsHandler(statsStore, userStore, engine, logger.With("component", "stats")),
		friendH:       handler.NewFriendHandler(friendStore, userStore, engine, logger.With("component", "friend")),
		chatH:         handler.NewChatHandler(chatStore, hub, logger.With("component", "chat_history")),
		backupH:       handler.NewBackupHandler(backupMgr, logger.With("component", "backup_handler")),
		userStore:     userStore,
		chatStore:     chatStore,
		tokenIssuer:   issuer,
		rateLimiter:   middleware.NewRateLimiter(),
		engine:        engine,
		tracker:       tracker,
		backupManager: backupMgr,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager so main can run its loop.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.profileH.Register))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokenIssuer, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Profile
	mux.HandleFunc("GET /api/me", s.profileH.Me)
	mux.HandleFunc("PUT /api/me", s.profileH.Update)
	mux.HandleFunc("GET /api/me/rank", s.profileH.Rank)
	mux.HandleFunc("GET /api/leaderboard", s.profileH.Leaderboard)

	// Venues
	mux.HandleFunc("POST /api/venues", s.venueH.Create)
	mux.HandleFunc("GET /api/venues", s.venueH.List)
	mux.HandleFunc("GET /api/venues/{id}", s.venueH.Get)
	mux.HandleFunc("POST /api/venues/{id}/visit", s.venueH.Visit)
	mux.HandleFunc("POST /api/venues/{id}/like", s.venueH.Like)
	mux.HandleFunc("GET /api/venues/{id}/interaction", s.venueH.Interaction)
	mux.HandleFunc("GET /api/interactions", s.venueH.Interactions)
	mux.HandleFunc("POST /api/interactions/refresh-likes", s.venueH.RefreshGlobalLikes)
	mux.HandleFunc("POST /api/interactions/reset-stale", s.venueH.ResetStale)

	// Achievements
	mux.HandleFunc("GET /api/achievements", s.achievementH.All)
	mux.HandleFunc("GET /api/achievements/current", s.achievementH.Current)
	mux.HandleFunc("GET /api/achievements/count", s.achievementH.Count)
	mux.HandleFunc("PUT /api/achievements/{id}/progress", s.achievementH.UpdateProgress)
	mux.HandleFunc("POST /api/achievements/{id}/complete", s.achievementH.Complete)
	mux.HandleFunc("POST /api/achievements/reset", s.achievementH.Reset)
	mux.HandleFunc("GET /api/achievements/popups", s.achievementH.Popups)
	mux.HandleFunc("POST /api/achievements/popups/ack", s.achievementH.AckPopup)

	// Stats
	mux.HandleFunc("GET /api/stats", s.statsH.Get)
	mux.HandleFunc("POST /api/stats/increment", s.statsH.Increment)
	mux.HandleFunc("POST /api/stats/reconcile", s.statsH.Reconcile)

	// Friends
	mux.HandleFunc("POST /api/friends/requests", s.friendH.Request)
	mux.HandleFunc("POST /api/friends/requests/{id}/respond", s.friendH.Respond)
	mux.HandleFunc("GET /api/friends", s.friendH.List)
	mux.HandleFunc("GET /api/friends/requests", s.friendH.Pending)

	// Chat
	mux.HandleFunc("GET /api/venues/{id}/chat", s.chatH.History)
	mux.HandleFunc("GET /api/venues/{id}/chat/presence", s.chatH.Presence)

	// Backup
	mux.HandleFunc("GET /api/backup/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backup/now", s.backupH.Trigger)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.chatStore, s.logger.With("component", "ws_handler")))
}
