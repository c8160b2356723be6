// Package transport performs HTTP calls against a gateway endpoint with
// JSON bodies, uniform headers, bounded retry with exponential backoff,
// and a circuit breaker. All failures are normalized into
// *domain.NetworkError; callers never see net/http error types.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/yourorg/payment-gateway/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3

	backoffBase = 1 * time.Second
	backoffCap  = 10 * time.Second
)

// Config describes one transport instance, bound to a single base endpoint.
type Config struct {
	BaseURL string
	// Headers are sent on every request (e.g. the Authorization header
	// computed once at adapter construction).
	Headers map[string]string
	// Timeout bounds a single HTTP attempt. Zero means 30s.
	Timeout time.Duration
	// MaxRetries is the total number of attempts per logical call,
	// including the first. Zero means 3.
	MaxRetries int
	// DisableBreaker turns off the circuit breaker; useful in tests that
	// hammer a deliberately failing endpoint.
	DisableBreaker bool
}

// Client is safe for concurrent use: nothing is mutated after construction.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	maxRetries int
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger

	// sleep suspends only the calling goroutine between attempts.
	// Swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Client bound to cfg.BaseURL.
func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    cfg.Headers,
		maxRetries: maxRetries,
		log:        log,
		sleep:      waitFor,
	}
	if !cfg.DisableBreaker {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    cfg.BaseURL,
			Timeout: 30 * time.Second,
		})
	}
	return c
}

// Get issues a GET against path with the given query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST with body marshalled as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewNetworkError("failed to encode request body", 0, nil, err)
	}
	return c.do(ctx, http.MethodPost, path, nil, payload)
}

// do runs the retry state machine for one logical call. The attempt counter
// starts at 1; a failed attempt is retried only while attempt < maxRetries
// and the failure is retryable (no HTTP status, or status >= 500). The delay
// before retry n is min(1s * 2^(n-1), 10s).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	var lastErr *domain.NetworkError

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		respBody, err := c.execute(ctx, method, path, query, body)
		if err == nil {
			return respBody, nil
		}

		if !errors.As(err, &lastErr) {
			// execute only produces NetworkErrors; keep the invariant anyway.
			lastErr = domain.NewNetworkError(err.Error(), 0, nil, err)
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Circuit open: fail fast, retrying would only burn backoff budget.
			return nil, lastErr
		}
		if !lastErr.Retryable() || attempt >= c.maxRetries {
			return nil, lastErr
		}

		delay := backoffDelay(attempt)
		c.log.Warn("retrying gateway request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("status", lastErr.StatusCode),
			zap.Duration("backoff", delay),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, domain.NewNetworkError("request aborted during retry backoff", 0, nil, err)
		}
	}
	return nil, lastErr
}

// execute performs a single attempt, routed through the breaker when enabled.
func (c *Client) execute(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if c.breaker == nil {
		return c.attempt(ctx, method, path, query, body)
	}
	out, err := c.breaker.Execute(func() (any, error) {
		return c.attempt(ctx, method, path, query, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.NewNetworkError(fmt.Sprintf("circuit open for %s", c.baseURL), 0, nil, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, domain.NewNetworkError("failed to build request", 0, nil, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No HTTP status was obtained: connection or timeout failure.
		return nil, domain.NewNetworkError(fmt.Sprintf("request to %s failed", target), 0, nil, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError("failed to read response body", 0, nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewNetworkError(
			fmt.Sprintf("gateway returned HTTP %d for %s %s", resp.StatusCode, method, path),
			resp.StatusCode, respBody, nil,
		)
	}
	return respBody, nil
}

// backoffDelay returns the suspension before the retry that follows attempt n.
func backoffDelay(attempt int) time.Duration {
	d := backoffBase << (attempt - 1)
	if d > backoffCap || d <= 0 {
		return backoffCap
	}
	return d
}

// waitFor blocks only the calling goroutine until d elapses or ctx is done.
func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
