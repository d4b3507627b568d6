package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "sqsdispatch"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error type label values for the errors counter.
const (
	ErrTypeResolution = "resolution"
	ErrTypeTransport  = "transport"
	ErrTypeCancelled  = "cancelled"
)

// Outcome label values for the resolver cache counter.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Labels holds constant labels applied to all metrics, useful for
// distinguishing metrics from multiple dispatcher instances.
type Labels struct {
	Environment   string // Deployment environment (e.g., "production", "staging")
	Region        string // Cloud region (e.g., "us-east-1", "eu-west-1")
	CloudProvider string // Cloud provider (e.g., "aws", "oci", "gcp")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	if l.Region != "" {
		labels["region"] = l.Region
	}
	if l.CloudProvider != "" {
		labels["cloud_provider"] = l.CloudProvider
	}
	return labels
}

type Metrics struct {
	messagesDispatched *prometheus.CounterVec
	batchesDispatched  *prometheus.CounterVec
	singleSends        *prometheus.CounterVec
	errors             *prometheus.CounterVec
	cacheOutcomes      *prometheus.CounterVec

	batchSendDuration prometheus.Histogram
	batchSize         prometheus.Histogram
	batchesInFlight   prometheus.Gauge
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// Returns an error if any metric registration fails.
// For metrics with constant labels (e.g., environment), use NewWithLabels instead.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	m := &Metrics{
		messagesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_dispatched_total",
			Help:      "Total messages handed to the transport by status",
		}, []string{"status"}),
		batchesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "batches_dispatched_total",
			Help:      "Total batch send calls by status",
		}, []string{"status"}),
		singleSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "single_sends_total",
			Help:      "Total single-message send calls by status",
		}, []string{"status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total dispatch errors by type",
		}, []string{"type"}),
		cacheOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_outcomes_total",
			Help:      "Total resolver cache lookups by outcome",
		}, []string{"outcome"}),
		batchSendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_send_duration_seconds",
			Help:      "Duration of a single transport batch send call",
			// Buckets cover typical queue API latencies: 1ms to 10s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "batch_size",
			Help:      "Number of entries per transport batch send call",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		batchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "batches_in_flight",
			Help:      "Number of batch send calls currently in progress",
		}),
	}

	err := errors.Join(
		reg.Register(m.messagesDispatched),
		reg.Register(m.batchesDispatched),
		reg.Register(m.singleSends),
		reg.Register(m.errors),
		reg.Register(m.cacheOutcomes),
		reg.Register(m.batchSendDuration),
		reg.Register(m.batchSize),
		reg.Register(m.batchesInFlight),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordBatchSent records a completed batch send call with its entry count and duration.
// Pass nil error for successful sends, non-nil for failures.
func (m *Metrics) RecordBatchSent(entries int, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.batchesDispatched.WithLabelValues(status).Inc()
	m.messagesDispatched.WithLabelValues(status).Add(float64(entries))
	m.batchSendDuration.Observe(durationSeconds)
	m.batchSize.Observe(float64(entries))
}

// RecordSingleSend records a single-message send outcome.
func (m *Metrics) RecordSingleSend(err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.singleSends.WithLabelValues(status).Inc()
	m.messagesDispatched.WithLabelValues(status).Inc()
}

// RecordCacheOutcome records one resolver cache lookup as a hit or a miss.
func (m *Metrics) RecordCacheOutcome(hit bool) {
	if m == nil {
		return
	}
	outcome := CacheMiss
	if hit {
		outcome = CacheHit
	}
	m.cacheOutcomes.WithLabelValues(outcome).Inc()
}

// IncError increments the error counter for the given error type.
func (m *Metrics) IncError(errType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errType).Inc()
}

// IncBatchesInFlight increments the in-flight batch gauge.
func (m *Metrics) IncBatchesInFlight() {
	if m == nil {
		return
	}
	m.batchesInFlight.Inc()
}

// DecBatchesInFlight decrements the in-flight batch gauge.
func (m *Metrics) DecBatchesInFlight() {
	if m == nil {
		return
	}
	m.batchesInFlight.Dec()
}
