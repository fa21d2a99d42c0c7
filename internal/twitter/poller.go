// Package twitter fetches posts from the twitterapi.io advanced search
// endpoint with cursor pagination.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.twitterapi.io"

// maxPages caps cursor pagination per account per window so a runaway
// cursor chain cannot stall a whole cycle.
const maxPages = 20

// Post is one tweet as returned by the search API. Author is filled
// from the account the query was issued for, not from the payload.
type Post struct {
	ID        string `json:"id"`
	IDStr     string `json:"id_str"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt"`
	Text      string `json:"text"`
	URL       string `json:"url"`
}

// Key returns the dedup identity of the post.
func (p Post) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.IDStr
}

// SourceURL returns the canonical link to the post.
func (p Post) SourceURL() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("https://twitter.com/%s/status/%s", p.Author, p.Key())
}

type searchResponse struct {
	Tweets      []Post `json:"tweets"`
	HasNextPage bool   `json:"has_next_page"`
	NextCursor  string `json:"next_cursor"`
}

// Client queries the search API for one or more monitored accounts.
type Client struct {
	apiKey string
	base   string
	http   *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimSuffix(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a search client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		base:   defaultBaseURL,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns all posts by account inside [since, until), following
// pagination cursors. API failures abort pagination for this account
// and return whatever was accumulated; they are logged, not raised, so
// one broken account never sinks a whole scan cycle. The only returned
// error is context cancellation.
func (c *Client) Search(ctx context.Context, account string, since, until time.Time, excludeReplies bool) ([]Post, error) {
	query := buildQuery(account, since, until, excludeReplies)

	var (
		all    []Post
		cursor string
	)
	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		resp, err := c.fetchPage(ctx, query, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			slog.Error("tweet search failed", "account", account, "page", page, "error", err)
			return all, nil
		}

		for i := range resp.Tweets {
			resp.Tweets[i].Author = account
		}
		all = append(all, resp.Tweets...)

		if !resp.HasNextPage || resp.NextCursor == "" {
			return all, nil
		}
		cursor = resp.NextCursor
	}
	slog.Warn("pagination cap reached", "account", account, "pages", maxPages, "posts", len(all))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, query, cursor string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("queryType", "Latest")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, "GET",
		c.base+"/twitter/tweet/advanced_search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (%d): %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &sr, nil
}

func buildQuery(account string, since, until time.Time, excludeReplies bool) string {
	const layout = "2006-01-02T15:04:05Z"
	sinceStr := since.UTC().Format(layout)
	untilStr := until.UTC().Format(layout)
	if excludeReplies {
		return fmt.Sprintf("from:%s -is:reply since:%s until:%s include:nativeretweets", account, sinceStr, untilStr)
	}
	return fmt.Sprintf("from:%s since:%s until:%s include:nativeretweets", account, sinceStr, untilStr)
}
