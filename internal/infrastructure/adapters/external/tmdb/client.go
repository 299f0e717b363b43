// Package tmdb looks titles up in The Movie Database (v3 API) and maps the
// results onto catalog drafts.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/pkg/errors"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
	"github.com/narwhalmedia/watchlist/pkg/logger"
)

const (
	DefaultBaseURL     = "https://api.themoviedb.org/3"
	DefaultLanguage    = "ru-RU"
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 5 * time.Second
)

// Waiter blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type Waiter func(ctx context.Context, d time.Duration) error

// Client represents a TMDB API client
type Client struct {
	baseURL     string
	accessToken string
	language    string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	wait        Waiter
	logger      interfaces.Logger
	cache       interfaces.Cache
	cacheTTL    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLanguage sets the localisation requested from TMDB.
func WithLanguage(language string) Option {
	return func(c *Client) {
		if language = strings.TrimSpace(language); language != "" {
			c.language = language
		}
	}
}

// WithRetryPolicy sets the attempt budget and the first backoff delay. The
// delay doubles after every failed attempt.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay >= 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithWaiter overrides how backoff sleeps are performed (useful for tests).
func WithWaiter(wait Waiter) Option {
	return func(c *Client) {
		if wait != nil {
			c.wait = wait
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l interfaces.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCache remembers found drafts for ttl. Misses and failures are not cached.
func WithCache(cache interfaces.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		if cache != nil && ttl > 0 {
			c.cache = cache
			c.cacheTTL = ttl
		}
	}
}

// New creates a TMDB client authenticating with a v4 read access token.
func New(baseURL, accessToken string, opts ...Option) (*Client, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, errors.Validation("tmdb access token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		language:    DefaultLanguage,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		wait:        sleepContext,
		logger:      logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SearchByTitle finds the best movie match for query, falling back to series.
// It returns NotFound when neither catalog has a match.
func (c *Client) SearchByTitle(ctx context.Context, query string) (domain.Title, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Title{}, errors.Validation("query must not be empty")
	}

	return c.cached(ctx, "title:"+strings.ToLower(query), func() (domain.Title, error) {
		return c.searchByTitle(ctx, query)
	})
}

func (c *Client) searchByTitle(ctx context.Context, query string) (domain.Title, error) {
	if id, ok, err := c.firstResult(ctx, "/search/movie", query); err != nil {
		return domain.Title{}, err
	} else if ok {
		draft, found, err := c.movieDraft(ctx, id)
		if err != nil || found {
			return draft, err
		}
	}

	if id, ok, err := c.firstResult(ctx, "/search/tv", query); err != nil {
		return domain.Title{}, err
	} else if ok {
		draft, found, err := c.seriesDraft(ctx, id)
		if err != nil || found {
			return draft, err
		}
	}

	return domain.Title{}, errors.NotFound(fmt.Sprintf("no movie or series matches %q", query))
}

// SearchByID fetches details for a numeric TMDB id, trying movies first.
func (c *Client) SearchByID(ctx context.Context, id int64) (domain.Title, error) {
	if id <= 0 {
		return domain.Title{}, errors.Validationf("invalid tmdb id %d", id)
	}

	return c.cached(ctx, "id:"+strconv.FormatInt(id, 10), func() (domain.Title, error) {
		return c.searchByID(ctx, id)
	})
}

func (c *Client) searchByID(ctx context.Context, id int64) (domain.Title, error) {
	draft, found, err := c.movieDraft(ctx, id)
	if err != nil || found {
		return draft, err
	}
	draft, found, err = c.seriesDraft(ctx, id)
	if err != nil || found {
		return draft, err
	}
	return domain.Title{}, errors.NotFound(fmt.Sprintf("no movie or series with id %d", id))
}

func (c *Client) cached(ctx context.Context, key string, fetch func() (domain.Title, error)) (domain.Title, error) {
	if c.cache == nil {
		return fetch()
	}
	if v, err := c.cache.Get(ctx, key); err == nil {
		if draft, ok := v.(domain.Title); ok {
			c.logger.Debug("TMDB cache hit", interfaces.String("key", key))
			return draft, nil
		}
	}

	draft, err := fetch()
	if err != nil {
		return domain.Title{}, err
	}
	if err := c.cache.Set(ctx, key, draft, c.cacheTTL); err != nil {
		c.logger.Warn("Failed to cache TMDB draft", interfaces.String("key", key), interfaces.Error(err))
	}
	return draft, nil
}

func (c *Client) firstResult(ctx context.Context, path, query string) (int64, bool, error) {
	var resp searchResponse
	found, err := c.getJSON(ctx, path, url.Values{"query": {query}}, &resp)
	if err != nil || !found || len(resp.Results) == 0 {
		return 0, false, err
	}
	return resp.Results[0].ID, true, nil
}

func (c *Client) movieDraft(ctx context.Context, id int64) (domain.Title, bool, error) {
	var details movieDetails
	found, err := c.getJSON(ctx, "/movie/"+strconv.FormatInt(id, 10), nil, &details)
	if err != nil || !found {
		return domain.Title{}, false, err
	}
	return details.toDraft(), true, nil
}

func (c *Client) seriesDraft(ctx context.Context, id int64) (domain.Title, bool, error) {
	var details tvDetails
	found, err := c.getJSON(ctx, "/tv/"+strconv.FormatInt(id, 10), nil, &details)
	if err != nil || !found {
		return domain.Title{}, false, err
	}
	return details.toDraft(), true, nil
}

// statusError is a non-2xx answer other than 404.
type statusError struct {
	StatusCode int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb returned status %d", e.StatusCode)
}

// getJSON performs one logical request with retries. A 404 reports found=false
// without an error; other failures are retried with exponential backoff.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) (bool, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, errors.Cancelled("tmdb request", err)
		}

		found, err := c.getOnce(ctx, path, params, out)
		if err == nil {
			return found, nil
		}
		if ctx.Err() != nil {
			return false, errors.Cancelled("tmdb request", ctx.Err())
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		delay := c.backoffDelay(attempt)
		c.logger.Warn("TMDB request failed, retrying",
			interfaces.String("path", path),
			interfaces.Int("attempt", attempt),
			interfaces.Int("max_attempts", c.maxAttempts),
			interfaces.Duration("delay", delay),
			interfaces.Error(err))
		if err := c.wait(ctx, delay); err != nil {
			return false, errors.Cancelled("tmdb backoff", err)
		}
	}

	return false, errors.NetworkFailure(
		fmt.Sprintf("tmdb %s failed after %d attempts", path, c.maxAttempts), lastErr)
}

// backoffDelay returns the wait after a failed attempt: base, 2*base, 4*base...
func (c *Client) backoffDelay(attempt int) time.Duration {
	return c.baseDelay << (attempt - 1)
}

func (c *Client) getOnce(ctx context.Context, path string, params url.Values, out interface{}) (bool, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return false, fmt.Errorf("parse tmdb url: %w", err)
	}
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("language", c.language)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return false, &statusError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode tmdb response: %w", err)
	}
	return true, nil
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
