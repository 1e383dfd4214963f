// Package fetch is the rate-limited HTTP client shared by the source collectors.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Autilos/perfun-bot-new/internal/domain"
)

// maxBodySize caps a single response body.
const maxBodySize = 16 << 20

// StatusError is returned for a non-2xx response that was not retried away.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// Config holds client settings.
type Config struct {
	// Delay is the minimum spacing between requests.
	Delay      time.Duration
	Timeout    time.Duration
	MaxRetries int
	// RetryDelay is the first backoff step. Defaults to 500ms.
	RetryDelay time.Duration
	UserAgent  string
	// Username and Password enable HTTP basic auth when Username is set.
	Username string
	Password string
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Requests, when set, counts outbound requests by code and method.
	Requests *prometheus.CounterVec
}

// Client issues GET requests spaced by a rate limiter and retries transient failures.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     Config
	logger  *zap.Logger
}

// New creates a fetch client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Requests != nil {
		transport = promhttp.InstrumentRoundTripperCounter(cfg.Requests, transport)
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout, Transport: transport},
		limiter: rate.NewLimiter(limit, 1),
		cfg:     cfg,
		logger:  logger,
	}
}

// Get returns the body of a 2xx response. 429 and 5xx responses and network
// errors are retried; other statuses fail immediately with *StatusError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retryWithBackoff(ctx, func() error {
		b, err := c.getOnce(ctx, url)
		if err != nil {
			c.logger.Debug("Request failed", zap.String("url", url), zap.Error(err))
			return err
		}
		body = b
		return nil
	}, c.cfg.MaxRetries, c.cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON decodes a JSON response body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, permanent(fmt.Errorf("rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("build request: %w", err))
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, permanent(ctx.Err())
		}
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, &StatusError{URL: url, Code: resp.StatusCode})
	case resp.StatusCode >= 500:
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	default:
		return nil, permanent(&StatusError{URL: url, Code: resp.StatusCode})
	}
}
