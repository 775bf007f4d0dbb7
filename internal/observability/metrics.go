package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	MessageEvents    *prometheus.CounterVec
	RepliesSent      prometheus.Counter
	ProviderErrors   *prometheus.CounterVec
	DecodeFailures   prometheus.Counter
	MalformedHistory prometheus.Counter
	TrackedLocks     prometheus.Gauge
	ProviderLatency  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		MessageEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_events_total",
			Help:      "Inbound message events by outcome.",
		}, []string{"outcome"}),
		RepliesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_sent_total",
			Help:      "Outgoing replies emitted to the host.",
		}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "LLM provider errors by classified code.",
		}, []string{"code"}),
		DecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_decode_failures_total",
			Help:      "Completions that could not be decoded as structured responses.",
		}),
		MalformedHistory: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_history_total",
			Help:      "Stored histories that failed to parse and were treated as empty.",
		}),
		TrackedLocks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_conversation_locks",
			Help:      "Conversation locks currently tracked by the registry.",
		}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_ms",
			Help:      "Latency of LLM provider completion calls in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
	}
}

func (m *Metrics) ObserveProviderLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderLatency.Observe(float64(d.Milliseconds()))
}

// Outcome labels for MessageEvents.
const (
	OutcomeReplied = "replied"
	OutcomeSilent  = "silent"
	OutcomeSkipped = "skipped"
)

func (m *Metrics) CountEvent(outcome string) {
	if m == nil {
		return
	}
	m.MessageEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountProviderError(code string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) CountReply() {
	if m == nil {
		return
	}
	m.RepliesSent.Inc()
}

func (m *Metrics) CountDecodeFailure() {
	if m == nil {
		return
	}
	m.DecodeFailures.Inc()
}

func (m *Metrics) CountMalformedHistory() {
	if m == nil {
		return
	}
	m.MalformedHistory.Inc()
}

func (m *Metrics) SetTrackedLocks(n int) {
	if m == nil {
		return
	}
	m.TrackedLocks.Set(float64(n))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
