package observability

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	sweeperMetricsOnce sync.Once
	sweeperRegistry    *SweeperMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record API activity per module.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total API requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Total API errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "auction",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for API handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "api",
				Name:      "throttles_total",
				Help:      "Count of requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	module = label(module, "unknown")
	method = label(method, "unknown")
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(label(module, "unknown"), label(reason, "unspecified")).Inc()
}

// SweeperMetrics tracks the background expiry sweeper.
type SweeperMetrics struct {
	runs     *prometheus.CounterVec
	changed  prometheus.Counter
	duration prometheus.Histogram
}

func Sweeper() *SweeperMetrics {
	sweeperMetricsOnce.Do(func() {
		sweeperRegistry = &SweeperMetrics{
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "sweeper",
				Name:      "runs_total",
				Help:      "Sweeper passes segmented by outcome.",
			}, []string{"outcome"}),
			changed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "auction",
				Subsystem: "sweeper",
				Name:      "lots_changed_total",
				Help:      "Lots whose lazy transition was persisted by the sweeper.",
			}),
			duration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "auction",
				Subsystem: "sweeper",
				Name:      "run_duration_seconds",
				Help:      "Duration of sweeper passes.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(sweeperRegistry.runs, sweeperRegistry.changed, sweeperRegistry.duration)
	})
	return sweeperRegistry
}

func (m *SweeperMetrics) Observe(changed int, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(outcome).Inc()
	if changed > 0 {
		m.changed.Add(float64(changed))
	}
	m.duration.Observe(d.Seconds())
}

func label(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
