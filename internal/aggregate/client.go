package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// Config holds the remote like-aggregate collaborator settings. An empty
// BaseURL leaves the client unconfigured; every call degrades to a no-op.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client talks to the cross-device like aggregate service. The aggregate is
// a display-only, eventually-consistent signal; callers must never gate local
// behavior on it.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an aggregate client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether a remote endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.BaseURL != ""
}

type upsertRequest struct {
	VenueID   string    `json:"venue_id"`
	UserID    string    `json:"user_id"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// UpsertLike pushes one user's like count for a venue to the aggregate.
// Best-effort: callers log and move on; there is no retry on this path.
func (c *Client) UpsertLike(ctx context.Context, venueID, userID string, count int, ts time.Time) error {
	if !c.Configured() {
		return nil
	}

	body, err := json.Marshal(upsertRequest{VenueID: venueID, UserID: userID, Count: count, Timestamp: ts})
	if err != nil {
		return fmt.Errorf("marshal upsert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/likes", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upsert like: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("upsert like: status %d", resp.StatusCode)
	}
	return nil
}

// ReadGlobalLikes fetches the full venue -> like-count mapping. Transient
// failures are retried a couple of times with exponential backoff; the
// refresh is a pull, so retrying cannot double-count anything.
func (c *Client) ReadGlobalLikes(ctx context.Context) (map[string]int, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("aggregate not configured")
	}

	var counts map[string]int
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/likes", nil)
		if err != nil {
			return err
		}
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("read global likes: status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("read global likes: status %d", resp.StatusCode)
		}

		counts = nil
		if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
			return fmt.Errorf("decode global likes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = map[string]int{}
	}
	return counts, nil
}

// BaseURL exposes the configured endpoint for status display.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}
