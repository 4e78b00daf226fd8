package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/drewb10/barbuddy/internal/auth"
)

// responseTap captures the status code and body size written by a handler.
type responseTap struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (t *responseTap) WriteHeader(code int) {
	if t.status == 0 {
		t.status = code
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(b []byte) (int, error) {
	if t.status == 0 {
		t.status = http.StatusOK
	}
	n, err := t.ResponseWriter.Write(b)
	t.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the real writer; the websocket
// upgrade on /ws needs this to hijack the connection.
func (t *responseTap) Unwrap() http.ResponseWriter { return t.ResponseWriter }

// RequestLogger logs one line per request. Server errors log at error level,
// client errors at warn. Authenticated requests carry the user id.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tap := &responseTap{ResponseWriter: w}

			next.ServeHTTP(tap, r)

			if tap.status == 0 {
				tap.status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case tap.status >= 500:
				level = slog.LevelError
			case tap.status >= 400:
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", tap.status),
				slog.Int("bytes", tap.bytes),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("remote", RealIP(r)),
			}
			if userID := auth.UserID(r.Context()); userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}
			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}
