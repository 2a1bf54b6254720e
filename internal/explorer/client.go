// Package explorer fetches read-only aggregate statistics for a
// position from an external opening-explorer endpoint. A new position
// supersedes any in-flight request, and a response that arrives after
// the position has moved on is discarded.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ErrSuperseded marks a fetch whose position is no longer current.
// Callers treat it as "no data", never as a failure.
var ErrSuperseded = errors.New("explorer fetch superseded by a newer position")

// MoveStats is the aggregate for one continuation from the position.
type MoveStats struct {
	UCI   string `json:"uci"`
	San   string `json:"san"`
	White int    `json:"white"`
	Draws int    `json:"draws"`
	Black int    `json:"black"`
}

// PositionStats is the explorer payload for one position.
type PositionStats struct {
	White int         `json:"white"`
	Draws int         `json:"draws"`
	Black int         `json:"black"`
	Moves []MoveStats `json:"moves"`
}

// Client queries the explorer endpoint keyed by FEN. It remembers the
// most recently requested position and cancels the previous in-flight
// request whenever a newer one starts.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	latestFEN string
	cancel    context.CancelFunc
}

// NewClient creates a Client for the given endpoint base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch requests statistics for the position. Starting a fetch cancels
// any earlier in-flight one; if another position is requested before
// this fetch completes, the result is dropped and ErrSuperseded is
// returned.
func (c *Client) Fetch(ctx context.Context, fen string) (*PositionStats, error) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.latestFEN = fen
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	reqURL := fmt.Sprintf("%s?fen=%s", c.baseURL, url.QueryEscape(fen))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.superseded(fen) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("explorer fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer fetch: unexpected status %d", resp.StatusCode)
	}

	var stats PositionStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("explorer fetch: decode: %w", err)
	}

	// The position may have moved on while the response was in flight.
	if c.superseded(fen) {
		return nil, ErrSuperseded
	}
	return &stats, nil
}

func (c *Client) superseded(fen string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latestFEN != fen
}
