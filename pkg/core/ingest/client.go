// Package ingest fetches company valuation metrics from the remote metrics page.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 10 * time.Second

	symbolPlaceholder = "{symbol}"
)

var (
	// ErrNotFound is returned when the page does not exist or carries no metrics
	ErrNotFound = errors.New("company metrics not found")

	// ErrUpstream is returned when the metrics source fails
	ErrUpstream = errors.New("metrics source unavailable")
)

// Client looks up company metrics
type Client struct {
	baseURL    string
	userAgent  string
	labels     config.MetricLabels
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the configured base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient initializes a metrics client from configuration
func NewClient(cfg config.MetricsConfig, log *logrus.Logger, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1
	}

	c := &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		labels:    cfg.Labels,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches and parses the metrics page for symbol
func (c *Client) Lookup(ctx context.Context, symbol string) (*models.CompanyMetrics, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", ErrNotFound)
	}

	pageURL := c.pageURL(symbol)
	logger := c.log.WithFields(logrus.Fields{"symbol": symbol, "url": pageURL})

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Warn("Metrics request failed")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		logger.WithField("status", resp.StatusCode).Warn("Unexpected metrics status")
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrUpstream, resp.StatusCode)
	}

	metrics, err := ParseMetrics(resp.Body, c.labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics page: %w", err)
	}
	if !metrics.HasAny() {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}

	metrics.Symbol = symbol
	metrics.Source = pageURL
	metrics.FetchedAt = time.Now().UTC()

	logger.WithField("elapsed", time.Since(start).String()).Debug("Metrics fetched")
	return metrics, nil
}

func (c *Client) pageURL(symbol string) string {
	escaped := url.PathEscape(symbol)
	if strings.Contains(c.baseURL, symbolPlaceholder) {
		return strings.ReplaceAll(c.baseURL, symbolPlaceholder, escaped)
	}
	return c.baseURL
}

// NormalizeSymbol trims and upper-cases an exchange symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
