// Package client is a Go SDK for the MetaNet HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MetaNet/pkg/errors"
	"github.com/turtacn/MetaNet/pkg/types/common"
)

const Version = "0.1.0"

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to one MetaNet server.  It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	// attemptTimeout bounds one attempt; zero leaves only ctx.
	attemptTimeout time.Duration
	requestID      func() string

	formulas     *FormulasClient
	formulasOnce sync.Once
	network      *NetworkClient
	networkOnce  sync.Once
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("metanet: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, msg, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsCode reports whether the server answered with code.
func (e *APIError) IsCode(code errors.ErrorCode) bool {
	return e.Code == code.String()
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.NewValidationError("base_url", "must not be empty")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.NewValidationError("base_url", err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.NewValidationError("base_url", "scheme must be http or https")
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("metanet-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
		requestID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Formulas returns the formulas sub-client.
func (c *Client) Formulas() *FormulasClient {
	c.formulasOnce.Do(func() {
		c.formulas = &FormulasClient{client: c}
	})
	return c.formulas
}

// Network returns the network sub-client.
func (c *Client) Network() *NetworkClient {
	c.networkOnce.Do(func() {
		c.network = &NetworkClient{client: c}
	})
	return c.network
}

// Liveness is the body of GET /healthz.
type Liveness struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Live calls the liveness probe.
func (c *Client) Live(ctx context.Context) (*Liveness, error) {
	var out Liveness
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready calls the readiness probe once.  A 503 is not an error: the report
// comes back with Ready false.
func (c *Client) Ready(ctx context.Context) (*common.HealthReport, error) {
	res, err := c.send(ctx, http.MethodGet, "/readyz", nil)
	if err != nil {
		return nil, err
	}
	if res.status != http.StatusOK && res.status != http.StatusServiceUnavailable {
		return nil, res.apiError()
	}
	var report common.HealthReport
	if err := json.Unmarshal(res.body, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &report, nil
}

// call performs a request and unwraps the APIResponse envelope.
func call[T any](ctx context.Context, c *Client, method, path string, body interface{}) (*T, error) {
	var env common.APIResponse[*T]
	if err := c.do(ctx, method, path, body, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return new(T), nil
	}
	return env.Data, nil
}

type response struct {
	status    int
	header    http.Header
	body      []byte
	requestID string
}

// apiError decodes the error envelope, falling back to the raw body.
func (r *response) apiError() *APIError {
	apiErr := &APIError{StatusCode: r.status, RequestID: r.requestID}
	var env common.APIResponse[json.RawMessage]
	if err := json.Unmarshal(r.body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Detail = env.Error.Detail
		if env.RequestID != "" {
			apiErr.RequestID = env.RequestID
		}
	} else if len(r.body) > 0 {
		apiErr.Message = string(r.body)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(r.status)
	}
	return apiErr
}

// send performs a single attempt.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (*response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := c.requestID()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: respBody, requestID: requestID}, nil
}

// do performs an HTTP request with retry logic
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("Retry attempt %d after %v", attempt, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		res, err := c.send(ctx, method, path, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("Request failed: %v", err)
			lastErr = err
			continue
		}

		if res.status == http.StatusTooManyRequests && attempt < c.retryMax {
			if seconds, err := strconv.Atoi(res.header.Get("Retry-After")); err == nil {
				c.logger.Infof("Rate limited, retrying after %d seconds", seconds)
				lastErr = res.apiError()
				select {
				case <-time.After(time.Duration(seconds) * time.Second):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if res.status >= 400 {
			apiErr := res.apiError()
			if apiErr.IsServerError() {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if result != nil && len(res.body) > 0 {
			if err := json.Unmarshal(res.body, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	// Jitter of up to 25%.
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(quarter))
	}
	return backoff
}
