// Package market hosts the Pionex REST client shared by both scanners. Every
// request goes through one pacing gate and one retry policy so concurrent
// workers cannot overrun the provider's rate limits.
package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/neodize/rsi-grid-alert-bot-sub000/internal/metrics"
)

const (
	defaultBaseURL       = "https://api.pionex.com"
	defaultTimeout       = 10 * time.Second
	defaultRequestDelay  = 1500 * time.Millisecond
	defaultMaxRetries    = 3
	defaultCapRateLimit  = 60 * time.Second
	defaultCapServer     = 30 * time.Second
	defaultKlineInterval = "60M"
	defaultKlineType     = "PERP"

	userAgent = "rsi-grid-alert-bot/1.0"
)

type retryClass int

const (
	classFatal retryClass = iota
	classRateLimited
	classServer
	classTimeout
	classTransport
)

func (rc retryClass) String() string {
	switch rc {
	case classRateLimited:
		return "rate_limited"
	case classServer:
		return "server_error"
	case classTimeout:
		return "timeout"
	case classTransport:
		return "transport"
	default:
		return "fatal"
	}
}

// Client is a rate-limited market-data fetcher. One instance is shared by all
// workers of a scan run; the mutex only guards the dispatch-spacing decision,
// network calls overlap freely once spaced.
type Client struct {
	log           zerolog.Logger
	http          *http.Client
	baseURL       string
	klineInterval string
	klineType     string
	minDelay      time.Duration
	maxRetries    int
	capRateLimit  time.Duration
	capServer     time.Duration

	mu           sync.Mutex
	lastDispatch time.Time

	sleep func(time.Duration)
}

// Option configures Client construction parameters.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client (timeout included).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRequestDelay sets the minimum spacing between any two outbound requests.
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.minDelay = d
		}
	}
}

// WithRetryPolicy overrides attempt count and backoff caps.
func WithRetryPolicy(maxRetries int, capRateLimit, capServer time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if capRateLimit > 0 {
			c.capRateLimit = capRateLimit
		}
		if capServer > 0 {
			c.capServer = capServer
		}
	}
}

// WithKlineParams sets the candle interval and market type sent on kline requests.
func WithKlineParams(interval, klineType string) Option {
	return func(c *Client) {
		if interval != "" {
			c.klineInterval = interval
		}
		if klineType != "" {
			c.klineType = klineType
		}
	}
}

// NewClient builds a client against the given base URL ("" selects the default).
func NewClient(log zerolog.Logger, baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		log:           log,
		http:          &http.Client{Timeout: defaultTimeout},
		baseURL:       baseURL,
		klineInterval: defaultKlineInterval,
		klineType:     defaultKlineType,
		minDelay:      defaultRequestDelay,
		maxRetries:    defaultMaxRetries,
		capRateLimit:  defaultCapRateLimit,
		capServer:     defaultCapServer,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pace blocks until the minimum inter-request delay since the last dispatch has
// elapsed, then stamps the new dispatch time. The sleep happens under the lock:
// that is what spaces concurrent callers apart.
func (c *Client) pace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastDispatch.IsZero() {
		if wait := c.minDelay - time.Since(c.lastDispatch); wait > 0 {
			c.sleep(wait)
		}
	}
	c.lastDispatch = time.Now()
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		c.pace()
		metrics.RequestsTotal.WithLabelValues(path).Inc()
		body, class, err := c.do(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if class == classFatal {
			return nil, err
		}
		if attempt == c.maxRetries-1 {
			break
		}
		wait := c.backoff(class, attempt)
		c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt+1).Dur("backoff", wait).Msg("request failed, retrying")
		metrics.RetriesTotal.WithLabelValues(class.String()).Inc()
		c.sleep(wait)
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, retryClass, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, classFatal, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return nil, classTimeout, fmt.Errorf("request timed out: %w", err)
		}
		return nil, classTransport, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, classRateLimited, fmt.Errorf("rate limited (429)")
	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, classServer, fmt.Errorf("server error %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, classFatal, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classTransport, fmt.Errorf("read body: %w", err)
	}
	return body, classFatal, nil
}

// backoff is capped exponential: 2^attempt seconds, bounded per failure class.
func (c *Client) backoff(class retryClass, attempt int) time.Duration {
	if attempt > 10 {
		attempt = 10
	}
	wait := time.Duration(1<<uint(attempt)) * time.Second
	switch class {
	case classRateLimited:
		if wait > c.capRateLimit {
			wait = c.capRateLimit
		}
	case classServer, classTimeout:
		if wait > c.capServer {
			wait = c.capServer
		}
	}
	return wait
}
