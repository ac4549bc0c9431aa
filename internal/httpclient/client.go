package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vadimtrunov/moviedeck/internal/core"
)

// Config holds timeout and rate limit configuration.
type Config struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second; <= 0 disables limiting
	Burst     int
}

// DefaultConfig returns sensible defaults. TMDb allows roughly 50 requests per second.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		RateLimit: 40,
		Burst:     20,
	}
}

// Client wraps http.Client with an outbound rate limiter and typed transport errors.
// Each call to Do performs exactly one attempt.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a new Client with a default http.Client.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient creates a Client with a custom http.Client (e.g. a test transport).
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &Client{
		http:    httpClient,
		limiter: limiter,
		logger:  logger,
	}
}

// Do waits for the rate limiter and executes the request once.
// Transport failures are returned as *core.NetworkError; a canceled or expired
// request context is returned as the context error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	op := req.Method + " " + req.URL.Path

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &core.NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("upstream request",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}
