// Package prometheus exposes application metrics.  The collector wraps the
// client library behind small interfaces so application code never imports
// prometheus directly and tests can substitute a fresh registry.
package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// MetricsCollector registers and serves metrics.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

// CounterVec is a labeled counter family.
type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

// Counter is a monotonically increasing value.
type Counter interface {
	Inc()
	Add(delta float64)
}

// GaugeVec is a labeled gauge family.
type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

// Gauge is a value that can move both ways.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

// HistogramVec is a labeled histogram family.
type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

// Histogram records observations into buckets.
type Histogram interface {
	Observe(value float64)
}

// CollectorConfig controls namespace and registry selection.
type CollectorConfig struct {
	Namespace string
	Registry  *prometheus.Registry
}

type promCollector struct {
	namespace string
	registry  *prometheus.Registry
	logger    logging.Logger
	mu        sync.Mutex
	known     map[string]prometheus.Collector
}

// NewMetricsCollector builds a collector.  A nil registry gets a fresh one,
// which keeps parallel tests from colliding on duplicate registration.
func NewMetricsCollector(cfg CollectorConfig, log logging.Logger) MetricsCollector {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "dentemg"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	return &promCollector{
		namespace: cfg.Namespace,
		registry:  cfg.Registry,
		logger:    log.Named("metrics"),
		known:     map[string]prometheus.Collector{},
	}
}

func (c *promCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// register stores the first collector seen under a name and returns it for
// every later registration, so repeated wiring is idempotent.
func (c *promCollector) register(name string, newCollector prometheus.Collector) prometheus.Collector {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.known[name]; ok {
		return existing
	}
	if err := c.registry.Register(newCollector); err != nil {
		c.logger.Warn("Metric registration failed", logging.String("name", name), logging.Err(err))
	}
	c.known[name] = newCollector
	return newCollector
}

func (c *promCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace, Name: name, Help: help,
	}, labels)
	return &promCounterVec{vec: c.register(name, vec).(*prometheus.CounterVec)}
}

func (c *promCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace, Name: name, Help: help,
	}, labels)
	return &promGaugeVec{vec: c.register(name, vec).(*prometheus.GaugeVec)}
}

func (c *promCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace, Name: name, Help: help, Buckets: buckets,
	}, labels)
	return &promHistogramVec{vec: c.register(name, vec).(*prometheus.HistogramVec)}
}

type promCounterVec struct{ vec *prometheus.CounterVec }

func (v *promCounterVec) WithLabelValues(lvs ...string) Counter {
	return v.vec.WithLabelValues(lvs...)
}

type promGaugeVec struct{ vec *prometheus.GaugeVec }

func (v *promGaugeVec) WithLabelValues(lvs ...string) Gauge {
	return v.vec.WithLabelValues(lvs...)
}

type promHistogramVec struct{ vec *prometheus.HistogramVec }

func (v *promHistogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.vec.WithLabelValues(lvs...)
}
