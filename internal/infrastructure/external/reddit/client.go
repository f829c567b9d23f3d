// Package reddit implements a client for the public Reddit listing API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/embedpath/hardwarehub-backend/internal/domain/insights"
	"github.com/embedpath/hardwarehub-backend/pkg/circuitbreaker"
	"github.com/embedpath/hardwarehub-backend/pkg/retry"
	"github.com/embedpath/hardwarehub-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Reddit client.
type ClientConfig struct {
	// BaseURL is the Reddit base URL
	BaseURL string

	// UserAgent identifies the client. Reddit throttles the default Go
	// user agent almost immediately, so a descriptive one is required.
	UserAgent string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://www.reddit.com",
		UserAgent:         "hardwarehub-insights/1.0",
		Timeout:           15 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client fetches post listings from the public Reddit JSON API.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	retrier     *retry.Retrier
	breaker     *circuitbreaker.CircuitBreaker
	mapper      *Mapper
}

// NewClient creates a new Reddit client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://www.reddit.com"
	}
	if config.UserAgent == "" {
		config.UserAgent = "hardwarehub-insights/1.0"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      config.Logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		retrier:     retry.RedditRetrier(),
		breaker: circuitbreaker.RedditBreaker(func(name string, from, to circuitbreaker.State) {
			config.Logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
		mapper: NewMapper(),
	}
}

// FetchNewPosts fetches the newest posts of a subreddit, mapped to domain
// posts. Stickied posts are dropped during mapping.
func (c *Client) FetchNewPosts(ctx context.Context, subreddit string, limit int) ([]insights.Post, error) {
	listing, err := c.fetchListing(ctx, subreddit, limit)
	if err != nil {
		return nil, err
	}
	return c.mapper.PostsFromListing(listing, timeutil.Now()), nil
}

// fetchListing fetches a raw listing page with rate limiting, circuit
// breaking and retries.
func (c *Client) fetchListing(ctx context.Context, subreddit string, limit int) (*ListingDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	path := fmt.Sprintf("/r/%s/new.json?limit=%d", url.PathEscape(subreddit), limit)

	var listing *ListingDTO
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return retry.Permanent(err)
			}

			l, err := c.doListingRequest(ctx, path, subreddit)
			if err != nil {
				return err
			}
			listing = l
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s listing: %w", subreddit, err)
	}

	return listing, nil
}

// doListingRequest performs a single listing request.
func (c *Client) doListingRequest(ctx context.Context, path, subreddit string) (*ListingDTO, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("reddit request", "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.rateLimiter.Backoff()
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				c.logger.Warn("reddit rate limited", "subreddit", subreddit, "retry_after_s", seconds)
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Subreddit: subreddit}
	}

	if resp.StatusCode >= 500 {
		return nil, &APIError{StatusCode: resp.StatusCode, Subreddit: subreddit}
	}
	if resp.StatusCode >= 400 {
		// Client errors (private sub, banned sub) will not heal on retry.
		return nil, retry.Permanent(&APIError{StatusCode: resp.StatusCode, Subreddit: subreddit})
	}

	var listing ListingDTO
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, retry.Permanent(fmt.Errorf("unmarshal listing: %w", err))
	}

	return &listing, nil
}

// IsHealthy checks if Reddit is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/r/arduino/new.json?limit=1", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
