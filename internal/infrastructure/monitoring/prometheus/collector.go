// Package prometheus wraps client_golang behind small interfaces so MetaNet
// components record metrics without depending on a live registry in tests.
package prometheus

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaNet/pkg/errors"
)

// MetricsCollector creates and exposes metric families.  Registering the same
// name twice returns the family registered first.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
	Gatherer() prometheus.Gatherer
	MustRegister(cs ...prometheus.Collector)
}

// CounterVec is a labelled counter family.
type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

// Counter only goes up.
type Counter interface {
	Inc()
	Add(delta float64)
}

// GaugeVec is a labelled gauge family.
type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

// Gauge goes up and down.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
	Add(delta float64)
}

// HistogramVec is a labelled histogram family.
type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

// Histogram records observations into buckets.
type Histogram interface {
	Observe(value float64)
}

// CollectorConfig configures the registry.
type CollectorConfig struct {
	Namespace            string            `mapstructure:"namespace" yaml:"namespace"`
	Subsystem            string            `mapstructure:"subsystem" yaml:"subsystem"`
	EnableProcessMetrics bool              `mapstructure:"enable_process_metrics" yaml:"enable_process_metrics"`
	EnableGoMetrics      bool              `mapstructure:"enable_go_metrics" yaml:"enable_go_metrics"`
	DefaultBuckets       []float64         `mapstructure:"default_buckets" yaml:"default_buckets"`
	ConstLabels          map[string]string `mapstructure:"const_labels" yaml:"const_labels"`
}

type collector struct {
	registry *prometheus.Registry
	cfg      CollectorConfig
	logger   logging.Logger

	mu       sync.Mutex
	families map[string]prometheus.Collector
}

// NewMetricsCollector builds a collector over a private registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.NewValidationError("namespace", "metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	reg := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}
	if cfg.DefaultBuckets == nil {
		cfg.DefaultBuckets = prometheus.DefBuckets
	}
	return &collector{
		registry: reg,
		cfg:      cfg,
		logger:   logger.Named("metrics"),
		families: make(map[string]prometheus.Collector),
	}, nil
}

func (c *collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *collector) Gatherer() prometheus.Gatherer { return c.registry }

func (c *collector) MustRegister(cs ...prometheus.Collector) { c.registry.MustRegister(cs...) }

// register stores fresh under name unless a family with that name exists,
// in which case the existing one is returned.
func (c *collector) register(name string, fresh prometheus.Collector) (prometheus.Collector, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fq := prometheus.BuildFQName(c.cfg.Namespace, c.cfg.Subsystem, name)
	if existing, ok := c.families[fq]; ok {
		return existing, true
	}
	if err := c.registry.Register(fresh); err != nil {
		c.logger.Error("metric registration failed", logging.String("name", fq), logging.Err(err))
		return nil, false
	}
	c.families[fq] = fresh
	return fresh, true
}

func (c *collector) RegisterCounter(name, help string, labels ...string) CounterVec {
	got, ok := c.register(name, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if vec, isCounter := got.(*prometheus.CounterVec); ok && isCounter {
		return counterVec{vec}
	}
	c.mismatch(name, "counter")
	return nopCounterVec{}
}

func (c *collector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	got, ok := c.register(name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if vec, isGauge := got.(*prometheus.GaugeVec); ok && isGauge {
		return gaugeVec{vec}
	}
	c.mismatch(name, "gauge")
	return nopGaugeVec{}
}

func (c *collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = c.cfg.DefaultBuckets
	}
	got, ok := c.register(name, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels, Buckets: buckets,
	}, labels))
	if vec, isHistogram := got.(*prometheus.HistogramVec); ok && isHistogram {
		return histogramVec{vec}
	}
	c.mismatch(name, "histogram")
	return nopHistogramVec{}
}

func (c *collector) mismatch(name, kind string) {
	c.logger.Warn("metric unavailable, recording to no-op", logging.String("name", name), logging.String("type", kind))
}

// ─────────────────────────────────────────────────────────────────────────────
// client_golang adapters
// ─────────────────────────────────────────────────────────────────────────────

type counterVec struct{ vec *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.vec.WithLabelValues(lvs...) }

type gaugeVec struct{ vec *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.vec.WithLabelValues(lvs...) }

type histogramVec struct{ vec *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram { return v.vec.WithLabelValues(lvs...) }

// nop families record nothing.
type (
	nopCounterVec   struct{}
	nopGaugeVec     struct{}
	nopHistogramVec struct{}
)

func (nopCounterVec) WithLabelValues(...string) Counter     { return nopMetric{} }
func (nopGaugeVec) WithLabelValues(...string) Gauge         { return nopMetric{} }
func (nopHistogramVec) WithLabelValues(...string) Histogram { return nopMetric{} }

type nopMetric struct{}

func (nopMetric) Inc()            {}
func (nopMetric) Dec()            {}
func (nopMetric) Add(float64)     {}
func (nopMetric) Set(float64)     {}
func (nopMetric) Observe(float64) {}

// ─────────────────────────────────────────────────────────────────────────────
// Timer
// ─────────────────────────────────────────────────────────────────────────────

// Timer observes elapsed seconds into a histogram.
type Timer struct {
	h     Histogram
	start time.Time
}

// NewTimer starts a timer.
func NewTimer(h Histogram) *Timer {
	return &Timer{h: h, start: time.Now()}
}

// ObserveDuration records the elapsed time and returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	if t.h != nil {
		t.h.Observe(d.Seconds())
	}
	return d
}
