// Package search queries the site's mobile search pages over an HTTP
// client that carries a logged-in session's cookies.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/twium/twium/internal/types"
)

// DefaultUserAgent matches the mobile pages the session was created on.
const DefaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"

// Options configures a Client.
type Options struct {
	// BaseURL is the mobile origin, e.g. https://mobile.twitter.com.
	BaseURL string
	// RequestsPerSecond paces page fetches. Zero means one per second.
	RequestsPerSecond float64
	UserAgent         string
	Logger            *slog.Logger
}

// Client pages through search results.
type Client struct {
	http      *http.Client
	base      string
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates a Client over httpClient, which should carry session cookies.
func New(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:      httpClient,
		base:      opts.BaseURL,
		userAgent: ua,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger.With("component", "search"),
	}
}

// Search returns up to count tweets matching query, newest first, following
// "load older" links until enough are collected or results run out.
func (c *Client) Search(ctx context.Context, query string, count int) ([]types.Tweet, error) {
	if count <= 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("s", "typd")
	next := c.base + "/search?" + q.Encode()

	var tweets []types.Tweet
	seen := make(map[string]bool)
	pages := 0

	for next != "" && len(tweets) < count {
		page, err := c.fetch(ctx, next)
		if err != nil {
			return tweets, err
		}
		pages++

		added := 0
		now := time.Now()
		for _, t := range page.tweets {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			t.Query = query
			t.FetchedAt = now
			tweets = append(tweets, t)
			added++
		}
		if added == 0 {
			break
		}
		next = page.next
	}

	if len(tweets) > count {
		tweets = tweets[:count]
	}

	c.logger.Debug("search complete", "query", query, "results", len(tweets), "pages", pages)
	return tweets, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string) (*resultPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page %s returned %s", pageURL, resp.Status)
	}

	page, err := parsePage(resp.Body, resp.Request.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}
	return page, nil
}
