package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"db-vacancy-manager/internal/errors"
)

// maxErrorBody caps how much of a failed response body ends up in the error
const maxErrorBody = 256

// Client is a GET-only HTTP client that attaches fixed headers to every request
// and optionally paces requests.
type Client struct {
	client  *http.Client
	headers map[string]string
	limiter *RateLimiter
}

// Option configures a Client
type Option func(*Client)

// WithHeader adds a header sent with every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRateLimit paces requests to at most requestsPerMinute. Zero or less disables pacing.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Client) {
		c.limiter = nil
		if requestsPerMinute > 0 {
			c.limiter = NewRateLimiter(requestsPerMinute)
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET to rawURL with params merged into its query. A transport failure or a
// non-2xx status is returned as an UNAVAILABLE error; on success the caller owns the body.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Usage(fmt.Sprintf("parse url %q", rawURL), err)
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Upstream("rate limiter", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Usage("build request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Upstream("GET "+u.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.UpstreamStatus("GET "+u.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return resp, nil
}

// Close drops idle keep-alive connections
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
