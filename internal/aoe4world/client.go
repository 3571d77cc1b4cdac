package aoe4world

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultBaseURL is the public AoE4World API
	DefaultBaseURL = "https://aoe4world.com/api/v0"

	// The API asks clients to stay polite; no documented hard limit
	defaultRequestsPerSecond = 5

	maxRetries        = 3
	defaultRetryAfter = 10 * time.Second
)

var (
	ErrNotFound    = errors.New("aoe4world: not found")
	ErrRateLimited = errors.New("aoe4world: rate limited")
	ErrUpstream    = errors.New("aoe4world: upstream error")
)

// Client is a rate-limited AoE4World API client
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Rate limiting
	mu        sync.Mutex
	window    []time.Time // Requests in last second
	perSecond int

	summaries *QueryCache
}

// NewClient creates a new AoE4World API client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		perSecond: defaultRequestsPerSecond,
		summaries: NewQueryCache(),
	}
}

// SetRateLimit changes the number of requests allowed per second
func (c *Client) SetRateLimit(perSecond int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if perSecond > 0 {
		c.perSecond = perSecond
	}
}

// waitForRateLimit blocks until we can make another request
func (c *Client) waitForRateLimit(ctx context.Context) error {
	for {
		c.mu.Lock()

		now := time.Now()
		oneSecondAgo := now.Add(-1 * time.Second)

		kept := c.window[:0]
		for _, t := range c.window {
			if t.After(oneSecondAgo) {
				kept = append(kept, t)
			}
		}
		c.window = kept

		if len(c.window) < c.perSecond {
			c.window = append(c.window, now)
			c.mu.Unlock()
			return nil
		}

		waitTime := c.window[0].Add(time.Second).Sub(now)
		c.mu.Unlock()

		if err := sleepContext(ctx, waitTime); err != nil {
			return err
		}
	}
}

// doRequest makes a rate-limited GET and decodes the JSON body into result
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.waitForRateLimit(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "aoe4companion/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt >= maxRetries {
				return fmt.Errorf("%w after %d retries: %s", ErrRateLimited, maxRetries, path)
			}
			waitTime := retryAfter(resp.Header.Get("Retry-After"))
			log.Printf("[AoE4World] 429 on %s, waiting %s", path, waitTime)
			if err := sleepContext(ctx, waitTime); err != nil {
				return err
			}
			continue
		}

		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%w: %s returned status %d", ErrUpstream, path, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
}

// retryAfter parses a Retry-After header given in seconds
func retryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
