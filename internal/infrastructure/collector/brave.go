// Package collector implements the lane collectors that feed the ranking
// engine: Brave news and web search, forum threads and syndication feeds.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"NewsRanker/internal/domain"
)

const (
	DefaultBraveEndpoint = "https://api.search.brave.com/res/v1"

	defaultCount   = 10
	maxBraveCount  = 20
	defaultRetries = 3
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("brave api key is not configured")

// BraveOptions configure the Brave Search client.
type BraveOptions struct {
	Endpoint          string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	Freshness         string
	Client            *http.Client
}

// BraveClient talks to the Brave Search news and web endpoints. Requests are
// rate limited across all lanes sharing the client.
type BraveClient struct {
	endpoint   string
	apiKey     string
	freshness  string
	maxRetries int
	client     *http.Client
	limiter    *rate.Limiter
}

// NewBraveClient builds a client; zero options fall back to defaults.
func NewBraveClient(opts BraveOptions) *BraveClient {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultBraveEndpoint
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultRetries
	}

	return &BraveClient{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(opts.APIKey),
		freshness:  opts.Freshness,
		maxRetries: retries,
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
	PageAge     string `json:"page_age"`
}

type newsResponse struct {
	Results []braveResult `json:"results"`
}

type webResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

// News runs a news search.
func (c *BraveClient) News(ctx context.Context, query string, count int) ([]domain.RawRecord, error) {
	var resp newsResponse
	if err := c.search(ctx, "/news/search", query, count, &resp); err != nil {
		return nil, err
	}
	return toRecords(resp.Results, domain.LaneSearch), nil
}

// Web runs a general web search.
func (c *BraveClient) Web(ctx context.Context, query string, count int) ([]domain.RawRecord, error) {
	var resp webResponse
	if err := c.search(ctx, "/web/search", query, count, &resp); err != nil {
		return nil, err
	}
	return toRecords(resp.Web.Results, domain.LaneWeb), nil
}

func (c *BraveClient) search(ctx context.Context, path, query string, count int, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("empty search query")
	}
	if count <= 0 {
		count = defaultCount
	}
	if count > maxBraveCount {
		count = maxBraveCount
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	if c.freshness != "" {
		params.Set("freshness", c.freshness)
	}
	target := c.endpoint + path + "?" + params.Encode()

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.fetch(ctx, target)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries)),
	)
	if err != nil {
		return fmt.Errorf("brave %s %q: %w", path, query, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode brave response: %w", err)
	}
	return nil
}

// fetch performs one request. Client errors other than rate limiting are
// permanent; everything else is retried.
func (c *BraveClient) fetch(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NewsRanker/1.0")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			return nil, backoff.RetryAfter(secs)
		}
		return nil, fmt.Errorf("brave returned %s", resp.Status)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("brave returned %s", resp.Status)
	default:
		return nil, backoff.Permanent(fmt.Errorf("brave returned %s", resp.Status))
	}
}

func toRecords(results []braveResult, lane domain.Lane) []domain.RawRecord {
	out := make([]domain.RawRecord, 0, len(results))
	for _, r := range results {
		age := r.Age
		if age == "" {
			age = r.PageAge
		}
		out = append(out, domain.RawRecord{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Age:         age,
			Lane:        lane,
		})
	}
	return out
}
