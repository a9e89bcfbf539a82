package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/riskscope/internal/model"
)

const namespace = "riskscope"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	decisions     *prometheus.CounterVec
	scores        *prometheus.HistogramVec
	analysis      *prometheus.HistogramVec
	analysisErrs  *prometheus.CounterVec
	routingErrs   *prometheus.CounterVec
	retries       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	dropped       prometheus.Counter
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Decisions made, by input kind and action.",
		}, []string{"kind", "action"}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "combined_score",
			Help:      "Distribution of combined risk scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}, []string{"kind"}),
		analysis: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Analyzer latency, by input kind and findings source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "source"}),
		analysisErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_errors_total",
			Help:      "Analyzer calls that failed outright.",
		}, []string{"kind"}),
		routingErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_errors_total",
			Help:      "Inputs rejected before analysis, by reason.",
		}, []string{"reason"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_retries_total",
			Help:      "Outbound HTTP retries, by reason.",
		}, []string{"reason"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries, by channel and result.",
		}, []string{"channel", "result"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Decisions dropped because the notification queue was full.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decisions,
		m.scores,
		m.analysis,
		m.analysisErrs,
		m.routingErrs,
		m.retries,
		m.notifications,
		m.dropped,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveDecision counts a decision and records its score.
func (m *Metrics) ObserveDecision(d model.Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(d.Kind), d.Action.String()).Inc()
	m.scores.WithLabelValues(string(d.Kind)).Observe(float64(d.CombinedScore))
}

// ObserveAnalysis records analyzer latency. A non-nil err counts as a failed
// analysis instead.
func (m *Metrics) ObserveAnalysis(kind model.Kind, source string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.analysisErrs.WithLabelValues(string(kind)).Inc()
		return
	}
	if source == "" {
		source = "unknown"
	}
	m.analysis.WithLabelValues(string(kind), source).Observe(elapsed.Seconds())
}

// ObserveRoutingError counts an input rejected before analysis.
func (m *Metrics) ObserveRoutingError(reason string) {
	if m == nil {
		return
	}
	m.routingErrs.WithLabelValues(reason).Inc()
}

// ObserveRetry counts an outbound retry. Its signature matches
// transport.WithRetryHook.
func (m *Metrics) ObserveRetry(reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(reason).Inc()
}

// ObserveNotification counts a delivery attempt on channel.
func (m *Metrics) ObserveNotification(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

// ObserveDropped counts a decision dropped by a full notification queue.
func (m *Metrics) ObserveDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

// Handler returns the exposition handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
