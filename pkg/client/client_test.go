package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/internal/app"
	"github.com/turtacn/MetaNet/internal/config"
	"github.com/turtacn/MetaNet/pkg/errors"
	"github.com/turtacn/MetaNet/pkg/types/common"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

// newServerClient runs the full HTTP stack over the built-in sample network.
func newServerClient(t *testing.T) *Client {
	cfg := config.NewDefaultConfig()
	cfg.Server.Mode = "test"
	cfg.Metrics.Enabled = false

	a, err := app.Build(context.Background(), cfg, nil, "test")
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })

	server := httptest.NewServer(a.Router)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, WithRetryMax(0))
	require.NoError(t, err)
	return client
}

func writeEnvelope(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testLogger struct {
	count int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { atomic.AddInt32(&l.count, 1) }
func (l *testLogger) Infof(format string, args ...interface{})  { atomic.AddInt32(&l.count, 1) }
func (l *testLogger) Errorf(format string, args ...interface{}) { atomic.AddInt32(&l.count, 1) }

// ---------------------------------------------------------------------------
// Constructor Tests
// ---------------------------------------------------------------------------

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "metanet-go-sdk/")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://invalid", "invalid-url", "http://[::1"} {
		_, err := NewClient(raw)
		assert.True(t, errors.IsValidation(err), raw)
	}
}

func TestNewClient_WithOptions(t *testing.T) {
	custom := &http.Client{Timeout: 10 * time.Second}
	logger := &testLogger{}
	c, err := NewClient("http://api.example.com",
		WithHTTPClient(custom),
		WithLogger(logger),
		WithRetryMax(5),
	)
	require.NoError(t, err)
	assert.Same(t, custom, c.httpClient)
	assert.Same(t, logger, c.logger)
	assert.Equal(t, 5, c.retryMax)
}

func TestClient_SubClients_ConcurrentAccess(t *testing.T) {
	c, _ := NewClient("http://api.example.com")
	assert.Nil(t, c.formulas)

	var wg sync.WaitGroup
	got := make([]*NetworkClient, 50)
	for i := range got {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			got[idx] = c.Network()
		}(i)
	}
	wg.Wait()
	for _, n := range got[1:] {
		assert.Same(t, got[0], n)
	}
	assert.Same(t, c.Formulas(), c.Formulas())
}

// ---------------------------------------------------------------------------
// HTTP Execution Tests (do)
// ---------------------------------------------------------------------------

func TestClient_Do_RequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "metanet-go-sdk/")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"formula":"H2O"}`, string(body))
		writeEnvelope(w, http.StatusOK, common.NewSuccessResponse(networktypes.FormulaDTO{Canonical: "H2O"}))
	})
	dto, err := c.Formulas().Parse(context.Background(), "H2O", nil)
	require.NoError(t, err)
	assert.Equal(t, "H2O", dto.Canonical)
}

func TestClient_Do_RetriesServerErrors(t *testing.T) {
	var calls int32
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeEnvelope(w, http.StatusServiceUnavailable, common.NewErrorResponse("COMMON_008", "unavailable", ""))
			return
		}
		writeEnvelope(w, http.StatusOK, common.NewSuccessResponse(networktypes.NetworkSummary{Substances: 1}))
	}, WithLogger(logger))

	sum, err := c.Network().Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Substances)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Positive(t, atomic.LoadInt32(&logger.count))
}

func TestClient_Do_GivesUpAfterRetryMax(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusInternalServerError, common.NewErrorResponse("COMMON_001", "internal server error", ""))
	}, WithRetryMax(2))

	_, err := c.Network().Summary(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.True(t, apiErr.IsCode(errors.ErrCodeInternal))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		resp := common.NewErrorResponse("FRM_001", "malformed formula", "unexpected '(' at 0")
		resp.RequestID = "req-1"
		writeEnvelope(w, http.StatusBadRequest, resp)
	})

	_, err := c.Formulas().Parse(context.Background(), "(", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "FRM_001", apiErr.Code)
	assert.Equal(t, "unexpected '(' at 0", apiErr.Detail)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "malformed formula: unexpected")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_NonEnvelopeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}, WithRetryMax(0))

	_, err := c.Network().Summary(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "gateway down")
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_Do_RateLimitedWithoutRetries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		writeEnvelope(w, http.StatusTooManyRequests, common.NewErrorResponse("COMMON_014", "rate limit exceeded, please retry later", ""))
	}, WithRetryMax(0))

	_, err := c.Network().Summary(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.True(t, apiErr.IsCode(errors.ErrCodeRateLimited))
}

func TestClient_Do_ContextCancelledDuringBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryWait(time.Hour, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Network().Summary(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Do_CustomRequestID(t *testing.T) {
	var seq int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") == "closure-1" {
			writeEnvelope(w, http.StatusServiceUnavailable, common.NewErrorResponse("COMMON_008", "unavailable", ""))
			return
		}
		writeEnvelope(w, http.StatusBadRequest, common.NewErrorResponse("COMMON_002", "invalid", ""))
	}, WithRetryMax(1), WithRequestID(func() string {
		return fmt.Sprintf("closure-%d", atomic.AddInt32(&seq, 1))
	}))

	_, err := c.Network().Summary(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "closure-2", apiErr.RequestID)
}

func TestClient_Do_AttemptTimeoutRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		writeEnvelope(w, http.StatusOK, common.NewSuccessResponse(networktypes.NetworkSummary{Substances: 9}))
	}, WithAttemptTimeout(50*time.Millisecond))

	sum, err := c.Network().Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, sum.Substances)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_CalculateBackoff(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: time.Second}
	assert.InDelta(t, float64(100*time.Millisecond), float64(c.calculateBackoff(1)), float64(25*time.Millisecond))
	assert.InDelta(t, float64(400*time.Millisecond), float64(c.calculateBackoff(3)), float64(100*time.Millisecond))
	b := c.calculateBackoff(10)
	assert.GreaterOrEqual(t, b, time.Second)
	assert.LessOrEqual(t, b, time.Second+250*time.Millisecond)
}

// ---------------------------------------------------------------------------
// Against the real router
// ---------------------------------------------------------------------------

func TestClient_Server_Formulas(t *testing.T) {
	c := newServerClient(t)
	ctx := context.Background()

	dto, err := c.Formulas().Parse(ctx, "OH2", nil)
	require.NoError(t, err)
	assert.Equal(t, "H2O", dto.Canonical)
	assert.Equal(t, 2.0, dto.Atoms["H"])

	two := 2.0
	dto, err = c.Formulas().Parse(ctx, "(CH2)n", &two)
	require.NoError(t, err)
	assert.Equal(t, "C2H4", dto.Canonical)

	cmp, err := c.Formulas().Compare(ctx, "C6H12O6", "H2O")
	require.NoError(t, err)
	assert.False(t, cmp.Equal)
	assert.Equal(t, "C6H14O7", cmp.Sum)
	assert.Equal(t, "C6H10O5", cmp.StoichiometricDifference)

	_, err = c.Formulas().Parse(ctx, "((", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsCode(errors.ErrCodeMalformedFormula))
}

func TestClient_Server_Network(t *testing.T) {
	c := newServerClient(t)
	ctx := context.Background()

	sum, err := c.Network().Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, networktypes.NetworkSummary{Substances: 9, Reactions: 3, Compartments: 2}, *sum)

	closure, err := c.Network().Closure(ctx, 101, &networktypes.ClosureRequest{Seed: []int{4, 5}})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7, 8}, closure.Substances)
	assert.Equal(t, []int{6, 7, 8}, closure.Added)

	comp, err := c.Network().Compartment(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, comp.Containing)
	assert.Equal(t, []int{9}, comp.Enzymes)

	bal, err := c.Network().Balance(ctx, 20)
	require.NoError(t, err)
	assert.True(t, bal.Balanced)
	assert.Equal(t, "water formation", bal.Name)

	all, err := c.Network().CompartmentBalance(ctx, 101)
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	_, err = c.Network().Compartment(ctx, 4040)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestClient_Server_Health(t *testing.T) {
	c := newServerClient(t)
	ctx := context.Background()

	live, err := c.Live(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, "test", live.Version)

	report, err := c.Ready(ctx)
	require.NoError(t, err)
	assert.True(t, report.Ready)
}

func TestClient_Ready_Unavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusServiceUnavailable, common.NewHealthReport(common.ComponentHealth{
			Name: "redis", Status: common.HealthDown,
		}))
	})
	report, err := c.Ready(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Ready)
	require.Len(t, report.Components, 1)
	assert.Equal(t, "redis", report.Components[0].Name)
}
