package httpclient

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pxharvest/pxharvest/errors"
)

const (
	// DefaultTimeout bounds one HTTP call including body read
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is the attempt budget per call (first try included)
	DefaultMaxRetries = 3
	// DefaultRateLimit paces outbound requests; public registry and archive
	// endpoints are shared infrastructure and batches can run into the
	// thousands of calls
	DefaultRateLimit = rate.Limit(1)

	// maxBodyBytes caps response reads; archive listings are a few MB at worst
	maxBodyBytes = 32 << 20
)

// Config holds transport configuration. Zero values fall back to defaults,
// so Client{} construction stays one call in commands and tests.
type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	RateLimit    rate.Limit
	RetryBackoff time.Duration // linear backoff base between attempts
	UserAgent    string
	Logger       *zap.SugaredLogger
}

// Client is the shared, retrying, rate-limited GET transport. One instance
// is reused across all batch workers; the underlying connection pool is
// shared and goroutine-safe.
type Client struct {
	httpClient *SaferClient
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	userAgent  string
	logger     *zap.SugaredLogger
}

// StatusError carries a non-success HTTP status that is neither retryable
// nor a 404. Callers inspect it to tell "structurally wrong request" apart
// from transport faults.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// IsIncompatible reports whether an error represents a response that will
// never improve with retries: a 404, another 4xx, or a payload that failed
// to decode. Adapters translate these into "no data here" rather than
// surfacing a fault.
func IsIncompatible(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errors.ErrNotFound) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 400 && statusErr.Code < 500
	}
	var jsonErr *json.SyntaxError
	if errors.As(err, &jsonErr) {
		return true
	}
	var jsonTypeErr *json.UnmarshalTypeError
	if errors.As(err, &jsonTypeErr) {
		return true
	}
	var xmlErr *xml.SyntaxError
	return errors.As(err, &xmlErr)
}

// New creates the shared transport with SSRF-safe defaults.
func New(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RateLimit <= 0 {
		config.RateLimit = DefaultRateLimit
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "pxharvest"
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Client{
		httpClient: NewSaferClient(config.Timeout),
		limiter:    rate.NewLimiter(config.RateLimit, 1),
		maxRetries: config.MaxRetries,
		backoff:    config.RetryBackoff,
		userAgent:  config.UserAgent,
		logger:     logger,
	}
}

// Get performs a rate-limited GET and returns the response body.
//
// Transient failures (HTTP 429/500/502/503/504, timeouts, connection
// refused/reset) are retried with linear backoff up to the configured
// attempt budget; GETs are idempotent so replays are safe. A 404 returns
// ErrNotFound without retrying, and any other non-2xx status returns a
// StatusError without retrying.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.backoff
			c.logger.Debugw("Retrying request",
				"url", url, "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "request cancelled during backoff")
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "request cancelled while rate limited")
		}

		body, retryable, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, errors.Wrapf(errors.Wrap(errors.ErrServiceUnavailable, lastErr.Error()),
		"giving up on %s after %d attempts", url, c.maxRetries)
}

// get performs a single attempt. The second return value reports whether the
// failure is worth retrying.
func (c *Client) get(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/xml, text/xml;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, errors.Wrap(errors.ErrTimeout, err.Error())
		}
		return nil, isRetryableError(err), errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, isRetryableError(err), errors.Wrap(err, "failed to read response")
		}
		return body, false, nil

	case resp.StatusCode == http.StatusNotFound:
		// Listing endpoints use 404 for "no such dataset"; not a fault
		io.Copy(io.Discard, resp.Body)
		return nil, false, errors.Wrapf(errors.ErrNotFound, "%s", url)

	case retryableStatus(resp.StatusCode):
		io.Copy(io.Discard, resp.Body)
		return nil, true, errors.Newf("transient status %d from %s", resp.StatusCode, url)

	default:
		io.Copy(io.Discard, resp.Body)
		return nil, false, &StatusError{Code: resp.StatusCode, URL: url}
	}
}

// GetJSON fetches a URL and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "failed to decode JSON from %s", url)
	}
	return nil
}

// GetXML fetches a URL and decodes the XML response into v.
func (c *Client) GetXML(ctx context.Context, url string, v interface{}) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "failed to decode XML from %s", url)
	}
	return nil
}

// retryableStatus lists the transient server responses worth replaying.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isRetryableError checks if an error is worth retrying (network-related)
func isRetryableError(err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}

	if opErr, ok := err.(*net.OpError); ok {
		if errno, ok := opErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	networkErrors := []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
		"unexpected eof",
	}
	for _, netErr := range networkErrors {
		if strings.Contains(errStr, netErr) {
			return true
		}
	}

	return false
}

// SetHTTPClient allows overriding the HTTP client for testing
// ⚠️ WARNING: Only use this in tests. Production code should use the default SSRF-safer client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = WrapClient(client)
}

// SetRateLimit replaces the pacing limiter; tests drop the politeness delay
// so retry suites run in milliseconds.
func (c *Client) SetRateLimit(limit rate.Limit) {
	c.limiter = rate.NewLimiter(limit, 1)
}
