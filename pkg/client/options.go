package client

import (
	"net/http"
	"time"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithHTTPClient sends requests through httpClient.  A nil client is ignored.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger reports retries and request timings to logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetryMax bounds the retries after the first attempt.  Zero disables
// retrying; a negative value is ignored.
func WithRetryMax(retryMax int) Option {
	return func(c *Client) {
		if retryMax >= 0 {
			c.retryMax = retryMax
		}
	}
}

// WithRetryWait sets the backoff range.  min must be positive; max is kept
// only when it is not below min.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		if min <= 0 {
			return
		}
		c.retryWaitMin = min
		if max >= min {
			c.retryWaitMax = max
		}
	}
}

// WithAttemptTimeout bounds each attempt.  An attempt that times out is
// retried while ctx allows.  Zero disables the bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.attemptTimeout = d
		}
	}
}

// WithRequestID takes X-Request-ID values from next instead of random UUIDs.
func WithRequestID(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.requestID = next
		}
	}
}

// WithUserAgent overrides the metanet-go-sdk User-Agent.  Empty is ignored.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}
