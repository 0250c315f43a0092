package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	apierrors "github.com/zfogg/reelgraph/internal/errors"
)

// Metrics holds all Prometheus metrics for the application.
// Every method is safe on a nil *Metrics so services run without them.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	// Domain
	FollowTransitionsTotal   *prometheus.CounterVec
	FeedPageDuration         *prometheus.HistogramVec
	EngagementMutationsTotal *prometheus.CounterVec
	StoreErrorsTotal         *prometheus.CounterVec
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response body size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "path", "status"},
		),
		HTTPActiveConnections: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "In-flight HTTP requests",
			},
			[]string{"method", "path"},
		),
		RateLimitExceededTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_exceeded_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"bucket"},
		),
		FollowTransitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "follow_transitions_total",
				Help: "Follow state machine transitions by outcome",
			},
			[]string{"transition", "result"},
		),
		FeedPageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feed_page_duration_seconds",
				Help:    "Time to compose one feed page",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"mode"},
		),
		EngagementMutationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engagement_mutations_total",
				Help: "Like and comment mutations by outcome",
			},
			[]string{"target", "action", "result"},
		),
		StoreErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_errors_total",
				Help: "Transient store failures surfaced to callers",
			},
			[]string{"operation"},
		),
	}
}

// Outcome is the result label for err: "ok" or its error code
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apierrors.CodeOf(err))
}

func (m *Metrics) FollowTransition(transition, result string) {
	if m == nil {
		return
	}
	m.FollowTransitionsTotal.WithLabelValues(transition, result).Inc()
}

func (m *Metrics) FeedPage(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FeedPageDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (m *Metrics) EngagementMutation(target, action, result string) {
	if m == nil {
		return
	}
	m.EngagementMutationsTotal.WithLabelValues(target, action, result).Inc()
}

func (m *Metrics) StoreError(operation string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) RateLimitExceeded(bucket string) {
	if m == nil {
		return
	}
	m.RateLimitExceededTotal.WithLabelValues(bucket).Inc()
}
