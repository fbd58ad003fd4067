package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/renderbridge/pkg/protocol"
)

// MetricsConfig configures channel metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "renderbridge").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures channel metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the dispatch duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "renderbridge",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors shared by any number of channels.
// Register one Metrics per registry and pass it to every channel with
// WithMetrics. A nil *Metrics records nothing.
type Metrics struct {
	messagesTotal    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	inboundBytes     *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	eventsTotal      *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	openBatches      prometheus.Gauge
	openChannels     prometheus.Gauge
}

// NewMetrics creates and registers the channel collectors.
//
// Metrics collected:
//   - renderbridge_messages_total: inbound operations by op and status
//   - renderbridge_errors_total: isolated failures by op and kind
//   - renderbridge_inbound_bytes_total: encoded bytes received by op
//   - renderbridge_dispatch_duration_seconds: decode + delegate time by op
//   - renderbridge_events_total: outbound events by status (sent, suppressed, failed)
//   - renderbridge_batch_duration_seconds: time from startBatch to endBatch
//   - renderbridge_open_batches: channels currently inside a batch
//   - renderbridge_open_channels: channels not yet closed
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_total",
			Help:        "Total number of inbound operations processed",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "status"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of isolated channel failures",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "kind"}),

		inboundBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "inbound_bytes_total",
			Help:        "Total encoded bytes received",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Inbound operation processing duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of outbound events by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_duration_seconds",
			Help:        "Time between startBatch and endBatch in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		openBatches: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "open_batches",
			Help:        "Number of channels currently inside a batch",
			ConstLabels: config.ConstLabels,
		}),

		openChannels: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "open_channels",
			Help:        "Number of channels not yet closed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordMessage(op protocol.Op, size int, d time.Duration, err *Error) {
	if m == nil {
		return
	}
	name := op.String()
	m.inboundBytes.WithLabelValues(name).Add(float64(size))
	m.dispatchDuration.WithLabelValues(name).Observe(d.Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	m.messagesTotal.WithLabelValues(name, status).Inc()
}

func (m *Metrics) recordError(err *Error) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(err.Op.String(), err.Kind.label()).Inc()
}

func (m *Metrics) recordEvent(status string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) batchOpened() {
	if m == nil {
		return
	}
	m.openBatches.Inc()
}

func (m *Metrics) batchClosed(d time.Duration) {
	if m == nil {
		return
	}
	m.openBatches.Dec()
	m.batchDuration.Observe(d.Seconds())
}

func (m *Metrics) channelOpened() {
	if m == nil {
		return
	}
	m.openChannels.Inc()
}

func (m *Metrics) channelClosed() {
	if m == nil {
		return
	}
	m.openChannels.Dec()
}
