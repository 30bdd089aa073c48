package prometheus

import (
	"strconv"
	"time"
)

// Bucket layouts.
var (
	HTTPDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	ComputeDurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5}
	PassBuckets            = []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89}
	SetSizeBuckets         = []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000}
)

// Outcome label values.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeCacheHit   = "cache_hit"
	OutcomeBalanced   = "balanced"
	OutcomeUnbalanced = "unbalanced"
)

// NetworkMetrics groups every metric family MetaNet records.  A nil
// *NetworkMetrics is valid and records nothing.
type NetworkMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	FormulaParseTotal    CounterVec
	FormulaParseDuration HistogramVec

	ClosureTotal         CounterVec
	ClosureDuration      HistogramVec
	ClosurePasses        HistogramVec
	ClosureResultSize    HistogramVec
	BalanceChecksTotal   CounterVec
	RegistryComponents   GaugeVec
	NetworkLoadDuration  HistogramVec
	GraphQueryDuration   HistogramVec
	CacheRequestsTotal   CounterVec
	ErrorsTotal          CounterVec
}

// NewNetworkMetrics registers every family on collector.
func NewNetworkMetrics(collector MetricsCollector) *NetworkMetrics {
	return &NetworkMetrics{
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "HTTP requests served.", "method", "route", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency.", HTTPDurationBuckets, "method", "route"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "HTTP requests in flight.", "method"),

		FormulaParseTotal:    collector.RegisterCounter("formula_parse_total", "Formula parse attempts.", "outcome"),
		FormulaParseDuration: collector.RegisterHistogram("formula_parse_duration_seconds", "Formula parse latency.", ComputeDurationBuckets),

		ClosureTotal:        collector.RegisterCounter("closure_total", "Closure computations.", "outcome"),
		ClosureDuration:     collector.RegisterHistogram("closure_duration_seconds", "Closure computation latency.", ComputeDurationBuckets, "compartment"),
		ClosurePasses:       collector.RegisterHistogram("closure_passes", "Passes needed to reach the fixed point.", PassBuckets),
		ClosureResultSize:   collector.RegisterHistogram("closure_result_size", "Substances in a closure result.", SetSizeBuckets),
		BalanceChecksTotal:  collector.RegisterCounter("balance_checks_total", "Reaction balance checks.", "outcome"),
		RegistryComponents:  collector.RegisterGauge("registry_components", "Registered components by kind.", "kind"),
		NetworkLoadDuration: collector.RegisterHistogram("network_load_duration_seconds", "Time to load a network into the registry.", HTTPDurationBuckets, "source"),
		GraphQueryDuration:  collector.RegisterHistogram("graph_query_duration_seconds", "Neo4j query latency.", HTTPDurationBuckets, "operation"),
		CacheRequestsTotal:  collector.RegisterCounter("cache_requests_total", "Closure cache lookups.", "result"),
		ErrorsTotal:         collector.RegisterCounter("errors_total", "Errors by code.", "component", "code"),
	}
}

// RecordHTTPRequest counts one served request.
func (m *NetworkMetrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func (m *NetworkMetrics) TrackInFlight(method string) func() {
	if m == nil {
		return func() {}
	}
	g := m.HTTPActiveRequests.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

// RecordParse counts one parse.
func (m *NetworkMetrics) RecordParse(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.FormulaParseTotal.WithLabelValues(outcome(err)).Inc()
	m.FormulaParseDuration.WithLabelValues().Observe(elapsed.Seconds())
}

// RecordClosure counts one computed closure.
func (m *NetworkMetrics) RecordClosure(compartment string, passes, size int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.ClosureTotal.WithLabelValues(outcome(err)).Inc()
	m.ClosureDuration.WithLabelValues(compartment).Observe(elapsed.Seconds())
	if err == nil {
		m.ClosurePasses.WithLabelValues().Observe(float64(passes))
		m.ClosureResultSize.WithLabelValues().Observe(float64(size))
	}
}

// RecordClosureCacheHit counts a closure served from cache.
func (m *NetworkMetrics) RecordClosureCacheHit() {
	if m == nil {
		return
	}
	m.ClosureTotal.WithLabelValues(OutcomeCacheHit).Inc()
}

// RecordBalance counts one balance check.
func (m *NetworkMetrics) RecordBalance(balanced bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.BalanceChecksTotal.WithLabelValues(OutcomeError).Inc()
	case balanced:
		m.BalanceChecksTotal.WithLabelValues(OutcomeBalanced).Inc()
	default:
		m.BalanceChecksTotal.WithLabelValues(OutcomeUnbalanced).Inc()
	}
}

// SetRegistrySize publishes the component count of one kind.
func (m *NetworkMetrics) SetRegistrySize(kind string, n int) {
	if m == nil {
		return
	}
	m.RegistryComponents.WithLabelValues(kind).Set(float64(n))
}

// RecordLoad observes one network load.
func (m *NetworkMetrics) RecordLoad(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.NetworkLoadDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordGraphQuery observes one Neo4j round trip.
func (m *NetworkMetrics) RecordGraphQuery(operation string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GraphQueryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordCacheAccess counts a cache hit or miss.
func (m *NetworkMetrics) RecordCacheAccess(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordError counts an error by its code.
func (m *NetworkMetrics) RecordError(component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
