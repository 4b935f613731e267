// Package rest provides a catalog store backed by a hosted PostgREST-style JSON API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tunestream/tunestream/internal/domain"
)

const (
	repoType = "rest"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 15 * time.Second

	// DefaultRateInterval spaces consecutive requests.
	DefaultRateInterval = 100 * time.Millisecond
)

// Client talks to the hosted catalog.
//
// Thread-safety: This implementation is thread-safe.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit allows one request per interval with the given burst.
// A zero interval disables limiting.
func WithRateLimit(interval time.Duration, burst int) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), max(burst, 1))
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the catalog API rooted at baseURL
// (for example "https://project.example/rest/v1").
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("repository", repoType)
	return c
}

// do waits for the limiter, sets auth headers and sends the request.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// doRequest encodes body as JSON, sends it to table with query, and decodes
// the response into result when result is non-nil.
func (c *Client) doRequest(ctx context.Context, op, method, table string, query url.Values, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.NewRepositoryError(op, repoType, "encode request", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return domain.NewRepositoryError(op, repoType, "build request", err)
	}
	if method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	start := time.Now()
	resp, err := c.do(req)
	if err != nil {
		return domain.NewRepositoryError(op, repoType, "request failed",
			fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err))
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.NewRepositoryError(op, repoType,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			domain.ErrCatalogUnavailable)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return domain.NewRepositoryError(op, repoType, "decode response", err)
		}
	}
	return nil
}
