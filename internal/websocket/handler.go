package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/store"
)

// HandleWebSocket returns an HTTP handler that upgrades connections and runs
// them as room clients for the venue named in the `venue` query parameter.
// An anonymous session handle is minted (or reused) per user and venue.
func HandleWebSocket(hub *Hub, chatStore *store.ChatStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		venueID := r.URL.Query().Get("venue")
		if userID == "" || venueID == "" {
			http.Error(w, "missing venue", http.StatusBadRequest)
			return
		}

		sess, err := chatStore.GetOrCreateSession(userID, venueID)
		if err != nil {
			logger.Error("chat session", "user_id", userID, "venue_id", venueID, "error", err)
			http.Error(w, "failed to join room", http.StatusInternalServerError)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Mobile clients connect from app webviews, not browsers
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, venueID, sess.ID, userID, sess.Handle)
		client.Run(r.Context())
	}
}
