// Package reddit implements content.Provider against the Reddit OAuth API.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
	"resty.dev/v3"

	"openmod/internal/content"
	"openmod/internal/platform/config"
	"openmod/pkg/platform/circuit"
	"openmod/pkg/platform/sentinel"
)

var apiLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "openmod_reddit_request_latency",
		Help:    "Histogram of Reddit API request latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	},
	[]string{"method", "path", "status_code"},
)

var defaultTransport = &resty.TransportSettings{
	DialerTimeout:         5 * time.Second,
	DialerKeepAlive:       30 * time.Second,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   5 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
}

// Client talks to the Reddit API under a single rate limit.
type Client struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLimiter replaces the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// New builds a client from the provider configuration.
func New(cfg config.RedditConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("reddit base url is required")
	}

	rc := resty.NewWithTransportSettings(defaultTransport).
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}
	rc.AddResponseMiddleware(metricMiddleware)

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	c := &Client{
		client:  rc,
		limiter: rate.NewLimiter(limit, 1),
		breaker: circuit.New("reddit"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.client.R().WithContext(ctx), nil
}

func metricMiddleware(_ *resty.Client, response *resty.Response) error {
	reqURL, err := url.Parse(response.Request.URL)
	if err != nil {
		return err
	}

	apiLatency.WithLabelValues(
		response.Request.Method,
		reqURL.Path,
		fmt.Sprintf("%d", response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}

// check maps transport and status failures onto sentinel errors and feeds
// the outcome to the health breaker. Misses are not failures.
func (c *Client) check(res *resty.Response, err error, what string) error {
	err = classify(res, err, what)
	if errors.Is(err, sentinel.ErrUnavailable) {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.Warn("reddit api marked unavailable", "error", err)
		}
		return err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("reddit api recovered")
	}
	return err
}

func classify(res *resty.Response, err error, what string) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %w", what, sentinel.ErrUnavailable, err)
	}
	switch code := res.StatusCode(); {
	case code == http.StatusNotFound, code == http.StatusForbidden:
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	case code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%s: status %d: %w", what, code, sentinel.ErrUnavailable)
	case res.IsError():
		return fmt.Errorf("%s: unexpected status %d", what, code)
	}
	return nil
}

// Health fails while recent calls to the API keep failing.
func (c *Client) Health(context.Context) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("reddit api: %w", sentinel.ErrUnavailable)
	}
	return nil
}

var _ content.Provider = (*Client)(nil)
