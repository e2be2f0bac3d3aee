package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ahearnzach3/Where2Run/pkg/logger"
	"github.com/ahearnzach3/Where2Run/pkg/middleware"
	"github.com/ahearnzach3/Where2Run/pkg/resilience"
)

// Client wraps http.Client with convenience methods and retry support
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	retryConfig *resilience.RetryConfig
}

// Option configures the HTTP client
type Option func(*Client)

// WithRetry enables retry logic with the given configuration
func WithRetry(config resilience.RetryConfig) Option {
	if config.RetryableChecker == nil {
		config.RetryableChecker = isHTTPRetryable
	}
	return func(c *Client) {
		c.retryConfig = &config
	}
}

// WithUserAgent sets the User-Agent header on every request. Nominatim
// rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new HTTP client
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post makes a POST request with JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	var payload []byte
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = jsonData
	}

	return c.withRetry(ctx, "http_post", func(ctx context.Context) ([]byte, error) {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(ctx, req, headers)
	})
}

// Get makes a GET request
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	return c.GetWithQuery(ctx, path, nil, headers)
}

// GetWithQuery makes a GET request with URL-encoded query parameters.
func (c *Client) GetWithQuery(ctx context.Context, path string, query url.Values, headers map[string]string) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return c.withRetry(ctx, "http_get", func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		return c.do(ctx, req, headers)
	})
}

func (c *Client) withRetry(ctx context.Context, name string, call func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.retryConfig == nil {
		return call(ctx)
	}

	result, err := resilience.RetryWithName(ctx, *c.retryConfig, func(ctx context.Context) (interface{}, error) {
		return call(ctx)
	}, name)
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

func (c *Client) do(ctx context.Context, req *http.Request, headers map[string]string) ([]byte, error) {
	injectRequestID(ctx, req)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// HTTPError represents an HTTP error response
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// isHTTPRetryable retries transport errors and transient status codes.
func isHTTPRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
	}

	return true
}

func injectRequestID(ctx context.Context, req *http.Request) {
	if ctx == nil || req == nil {
		return
	}

	if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}
}
