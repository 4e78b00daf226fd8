package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/drewb10/barbuddy/internal/auth"
	"github.com/drewb10/barbuddy/internal/store"
)

// RequireAuth validates the bearer device token, checks the user still
// exists, and populates the auth context. Tokens also arrive as a `token`
// query parameter for WebSocket upgrades, where mobile clients cannot set
// headers.
func RequireAuth(issuer *auth.TokenIssuer, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				unauthorized(w)
				return
			}

			userID, err := issuer.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(userID)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{UserID: user.ID, DisplayName: user.DisplayName}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
