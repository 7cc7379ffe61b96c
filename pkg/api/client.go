package api

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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/mosaic/pkg/buildinfo"
	"github.com/matzehuels/mosaic/pkg/cache"
	"github.com/matzehuels/mosaic/pkg/config"
	mosaicerrors "github.com/matzehuels/mosaic/pkg/errors"
	"github.com/matzehuels/mosaic/pkg/feed"
	"github.com/matzehuels/mosaic/pkg/httputil"
	"github.com/matzehuels/mosaic/pkg/observability"
)

const (
	httpTimeout      = 10 * time.Second
	defaultPageLimit = 20
	maxErrorBody     = 4 << 10
)

var (
	// ErrNotFound is matched by the FetchError of a 404 response.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited is matched by the FetchError of a 429 response.
	ErrRateLimited = errors.New("rate limited")

	// ErrNetwork is matched by transport failures.
	ErrNetwork = errors.New("network error")
)

// Client provides shared HTTP functionality for all API resources.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http    *http.Client
	base    *url.URL
	token   string
	headers map[string]string
	limit   int

	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration

	attempts int
	delay    time.Duration

	logger *log.Logger
	flight singleflight.Group
}

// Option configures a [Client].
type Option func(*Client)

// WithCache stores successful pages in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		if c != nil {
			cl.cache = c
			cl.ttl = ttl
		}
	}
}

// WithToken sends token as a bearer credential and scopes cache keys to it.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithPageLimit sets the limit query parameter sent with every page request.
func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithTimeout replaces the default 10s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// WithLogger sets the logger for request events.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := mosaicerrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, mosaicerrors.Wrap(mosaicerrors.ErrCodeInvalidInput, err, "parse base URL")
	}

	c := &Client{
		http:     &http.Client{Timeout: httpTimeout},
		base:     base,
		headers:  map[string]string{},
		limit:    defaultPageLimit,
		cache:    cache.NewNullCache(),
		attempts: 3,
		delay:    time.Second,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Pages from different hosts or accounts never share a cache entry.
	scope := "api:" + cache.Hash([]byte(base.String()))[:12] + ":"
	if c.token != "" {
		scope += "tok:" + cache.Hash([]byte(c.token))[:12] + ":"
	}
	c.keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), scope)
	return c, nil
}

// NewFromConfig builds a client from loaded settings.
func NewFromConfig(cfg config.Config, c cache.Cache, logger *log.Logger) (*Client, error) {
	return NewClient(cfg.API.BaseURL,
		WithToken(cfg.API.Token),
		WithTimeout(cfg.API.Timeout),
		WithPageLimit(cfg.API.PageLimit),
		WithCache(c, cfg.Cache.TTL),
		WithLogger(logger),
	)
}

// Limit returns the page size requested from the API.
func (c *Client) Limit() int { return c.limit }

// RawPage is a decoded envelope whose items are still JSON.
type RawPage struct {
	Data  json.RawMessage
	Next  feed.Cursor
	Limit int
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Next  feed.Cursor `json:"next"`
		Limit int         `json:"limit"`
	} `json:"pagination"`
}

// Page fetches the page of path that starts at cursor. Unless refresh is
// set, a cached copy is returned when available. Concurrent calls for the
// same page share one request.
func (c *Client) Page(ctx context.Context, path string, cursor feed.Cursor, refresh bool) (*RawPage, error) {
	key := c.keyer.PageKey(path, cursor.String(), c.limit)

	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			if page, err := decodeEnvelope(data); err == nil {
				c.logger.Debug("page cache hit", "path", path, "cursor", cursor)
				return page, nil
			}
			// A corrupt entry is refetched and overwritten.
		} else if err != nil {
			c.logger.Warn("cache read failed", "path", path, "err", err)
		}
	}

	// The shared request outlives any single caller; each caller stops
	// waiting on its own context instead.
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		data, err := c.fetch(shared, path, cursor)
		if err != nil {
			return nil, err
		}
		page, err := decodeEnvelope(data)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(shared, key, data, c.ttl); err != nil {
			c.logger.Warn("cache write failed", "path", path, "err", err)
		}
		return page, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RawPage), nil
	case <-ctx.Done():
		return nil, &feed.FetchError{Message: ctx.Err().Error(), Err: ctx.Err()}
	}
}

// fetch performs the request with retries and returns the raw body.
func (c *Client) fetch(ctx context.Context, path string, cursor feed.Cursor) ([]byte, error) {
	var body []byte
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		body, err = c.do(ctx, path, cursor)
		return err
	})
	if err != nil {
		// Callers classify by FetchError; the retry marker is internal.
		var re *httputil.RetryableError
		if errors.As(err, &re) {
			return nil, re.Err
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, &feed.FetchError{Message: ctxErr.Error(), Err: ctxErr}
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) pageURL(path string, cursor feed.Cursor) string {
	u := *c.base
	u.Path = u.Path + "/" + strings.TrimLeft(path, "/")
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.limit))
	if !cursor.IsZero() {
		q.Set("cursor", cursor.String())
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, path string, cursor feed.Cursor) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(path, cursor), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, reqPath := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, reqPath)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, reqPath, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: &feed.FetchError{
			Message: err.Error(),
			Err:     fmt.Errorf("%w: %v", ErrNetwork, err),
		}}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	hooks.OnResponse(ctx, req.Method, host, reqPath, resp.StatusCode, elapsed)
	c.logger.Debug("api request",
		"path", reqPath,
		"cursor", cursor,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"duration", elapsed.Round(time.Millisecond))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: &feed.FetchError{
			Status:  resp.StatusCode,
			Message: "read body: " + err.Error(),
			Err:     fmt.Errorf("%w: %v", ErrNetwork, err),
		}}
	}
	return body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	fe := &feed.FetchError{Status: code, Message: errorMessage(resp)}
	switch {
	case code == http.StatusNotFound:
		fe.Err = ErrNotFound
		return fe
	case code == http.StatusTooManyRequests:
		fe.Err = ErrRateLimited
		return &httputil.RetryableError{Err: fe, After: retryAfter(resp.Header.Get("Retry-After"))}
	case code >= 500:
		fe.Err = ErrNetwork
		return &httputil.RetryableError{Err: fe}
	default:
		return fe
	}
}

// errorMessage extracts a message from an error body, falling back to the
// status text.
func errorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		switch e := body.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				return m
			}
		}
	}
	return http.StatusText(resp.StatusCode)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func decodeEnvelope(data []byte) (*RawPage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &feed.MalformedPageError{Reason: "invalid JSON", Err: err}
	}
	raw := strings.TrimSpace(string(env.Data))
	switch {
	case raw == "" || raw == "null":
		return nil, &feed.MalformedPageError{Reason: "missing data"}
	case raw[0] != '[':
		return nil, &feed.MalformedPageError{Reason: "data is not a list"}
	case env.Pagination == nil:
		return nil, &feed.MalformedPageError{Reason: "missing pagination"}
	}
	return &RawPage{
		Data:  env.Data,
		Next:  env.Pagination.Next,
		Limit: env.Pagination.Limit,
	}, nil
}
