// Package roomnl implements the HTTP client and HTML parser for the ROOM.nl
// recently-rented listings page. The page is a rendered table, not an API;
// the client fetches the HTML and the parser extracts listings from the
// first table. All methods are context-aware, respect the shared rate
// limiter, and retry on transient errors (429, 5xx).
package roomnl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/KaiErikNiermann/roomnl-stats/internal/model"
)

const (
	// DefaultBaseURL is the English recently-rented page.
	DefaultBaseURL = "https://www.roommatch.nl/en/recently-rented"
	maxRetries     = 4
)

// Client fetches the recently-rented page.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	debug      bool
}

// NewClient creates a Client for the given page URL and timeout.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, debug bool) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		debug:   debug,
	}
}

// FetchListings downloads the recently-rented page and parses its table.
// Rows the parser could not fully interpret come back as warnings, not
// errors; a page with no table at all is an error.
func (c *Client) FetchListings(ctx context.Context, lang Language) ([]model.Listing, []string, error) {
	body, err := c.get(ctx, c.baseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("recently rented: %w", err)
	}
	return ParseListings(strings.NewReader(string(body)), lang)
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// get performs a GET request, handling rate limiting and retries.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.debug {
		slog.Debug("roomnl request", "url", reqURL)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))*500) * time.Millisecond
			slog.Debug("retrying after backoff", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "text/html")
		req.Header.Set("User-Agent", "roomnl-stats/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading body: %w", err)
			continue
		}

		if c.debug {
			slog.Debug("roomnl response", "status", resp.StatusCode, "bytes", len(body))
		}

		// Retry on server errors and rate limiting
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}
