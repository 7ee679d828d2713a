// Package httpclient is a small JSON-over-HTTP client with bounded retry of
// transport failures.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/folio-app/folio/internal/tracing"
	"github.com/folio-app/folio/pkg/log"
)

// StatusError is returned for responses with status 400 and above
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client sends JSON requests relative to a base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	modifier   func(*http.Request)
	retryCount int
	retryAfter time.Duration
	logger     log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestModifier runs fn on every outgoing request, e.g. to set API keys
func WithRequestModifier(fn func(*http.Request)) Option {
	return func(c *Client) { c.modifier = fn }
}

// WithRetry sets how many times a failed request is retried and the pause
// between attempts
func WithRetry(count int, after time.Duration) Option {
	return func(c *Client) {
		c.retryCount = count
		c.retryAfter = after
	}
}

// New creates a client for baseURL. By default a request is retried twice,
// one second apart, and times out after 10 seconds.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retryCount: 2,
		retryAfter: time.Second,
		logger:     log.Component("httpclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches path and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends a request. out may be nil to discard the response, a *string or
// *[]byte to receive the raw body, or any value to decode JSON into.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	url := c.baseURL + path
	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying request",
				log.String("method", method),
				log.String("url", url),
				log.Int("attempt", attempt),
				log.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryAfter):
			}
		}

		data, err := c.send(ctx, method, url, payload)
		if err == nil {
			return decode(data, out)
		}
		if _, ok := err.(*StatusError); ok {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("%s %s failed after %d attempts: %w", method, url, c.retryCount+1, lastErr)
}

func (c *Client) send(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := log.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	tracing.InjectHeaders(ctx, req.Header)
	if c.modifier != nil {
		c.modifier(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func decode(data []byte, out any) error {
	switch v := out.(type) {
	case nil:
		return nil
	case *string:
		*v = string(data)
		return nil
	case *[]byte:
		*v = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
