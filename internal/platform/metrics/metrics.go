// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeCached   = "cached"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	generations  *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	submissions  prometheus.Counter
	httpDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in production and a
// fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pai_quiz_generation_total",
			Help: "AI generation requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pai_quiz_ai_tokens_total",
			Help: "Tokens consumed by AI completions.",
		}, []string{"model"}),
		submissions: f.NewCounter(prometheus.CounterOpts{
			Name: "pai_quiz_submissions_total",
			Help: "Quiz submissions accepted.",
		}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pai_quiz_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// NewDefault registers with the global registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func (m *Metrics) Generation(kind, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Tokens(model string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tokens.WithLabelValues(model).Add(float64(n))
}

func (m *Metrics) Submission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
