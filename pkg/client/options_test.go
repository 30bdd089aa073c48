package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}
	c := &Client{}
	WithHTTPClient(custom)(c)
	assert.Same(t, custom, c.httpClient)
}

func TestWithHTTPClient_NilIgnored(t *testing.T) {
	def := &http.Client{}
	c := &Client{httpClient: def}
	WithHTTPClient(nil)(c)
	assert.Same(t, def, c.httpClient)
}

func TestWithLogger(t *testing.T) {
	logger := &testLogger{}
	c := &Client{}
	WithLogger(logger)(c)
	assert.Same(t, logger, c.logger)
}

func TestWithRetryMax(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"positive", 5, 5},
		{"zero disables retries", 0, 0},
		{"negative ignored", -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryMax: 3}
			WithRetryMax(tt.input)(c)
			assert.Equal(t, tt.want, c.retryMax)
		})
	}
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name             string
		min, max         time.Duration
		wantMin, wantMax time.Duration
	}{
		{"valid range", time.Second, 5 * time.Second, time.Second, 5 * time.Second},
		{"equal values", 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		{"zero min ignored", 0, 5 * time.Second, time.Millisecond, time.Hour},
		{"max below min keeps max", 5 * time.Second, 2 * time.Second, 5 * time.Second, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryWaitMin: time.Millisecond, retryWaitMax: time.Hour}
			WithRetryWait(tt.min, tt.max)(c)
			assert.Equal(t, tt.wantMin, c.retryWaitMin)
			assert.Equal(t, tt.wantMax, c.retryWaitMax)
		})
	}
}

func TestWithUserAgent(t *testing.T) {
	c := &Client{userAgent: "default"}
	WithUserAgent("")(c)
	assert.Equal(t, "default", c.userAgent)
	WithUserAgent("custom-agent/1.0")(c)
	assert.Equal(t, "custom-agent/1.0", c.userAgent)
}

func TestWithAttemptTimeout(t *testing.T) {
	c := &Client{attemptTimeout: time.Second}
	WithAttemptTimeout(-time.Second)(c)
	assert.Equal(t, time.Second, c.attemptTimeout)
	WithAttemptTimeout(0)(c)
	assert.Zero(t, c.attemptTimeout)
	WithAttemptTimeout(20 * time.Millisecond)(c)
	assert.Equal(t, 20*time.Millisecond, c.attemptTimeout)
}

func TestWithRequestID(t *testing.T) {
	def := func() string { return "default" }
	c := &Client{requestID: def}
	WithRequestID(nil)(c)
	assert.Equal(t, "default", c.requestID())
	WithRequestID(func() string { return "trace-42" })(c)
	assert.Equal(t, "trace-42", c.requestID())
}
