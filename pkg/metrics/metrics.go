// Package metrics exposes Prometheus collectors for camlink connections,
// decoded frames, streams and recordings.
//
// A nil *Metrics is valid and records nothing, so components accept it as
// an optional dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "camlink").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "camlink",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the camlink collectors.
type Metrics struct {
	openConnections   *prometheus.GaugeVec
	transitions       *prometheus.CounterVec
	reconnects        *prometheus.CounterVec
	heartbeatTimeouts *prometheus.CounterVec
	framesReceived    *prometheus.CounterVec
	bytesReceived     *prometheus.CounterVec
	bytesSent         *prometheus.CounterVec
	decodeErrors      *prometheus.CounterVec
	activeStreams     prometheus.Gauge
	sequenceGaps      prometheus.Counter
	idrRequests       prometheus.Counter
	recordings        *prometheus.CounterVec
	recordingBytes    prometheus.Histogram
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		openConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "open_connections",
			Help:        "Number of connections in the Open state",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		transitions:       counterVec("state_transitions_total", "Connection state transitions by target state", "kind", "state"),
		reconnects:        counterVec("reconnects_total", "Reconnection attempts", "kind"),
		heartbeatTimeouts: counterVec("heartbeat_timeouts_total", "Connections declared dead after unanswered heartbeats", "kind"),
		framesReceived:    counterVec("frames_received_total", "Inbound frames by decoded type", "kind", "type"),
		bytesReceived:     counterVec("received_bytes_total", "Inbound bytes", "kind"),
		bytesSent:         counterVec("sent_bytes_total", "Outbound bytes", "kind"),
		decodeErrors:      counterVec("dropped_frames_total", "Inbound frames dropped by reason", "kind", "reason"),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_streams",
			Help:        "Number of registered stream sessions",
			ConstLabels: config.ConstLabels,
		}),
		sequenceGaps: counter("sequence_gaps_total", "Video frames that skipped or regressed the sequence"),
		idrRequests:  counter("idr_requests_total", "Keyframe requests issued"),
		recordings:   counterVec("recordings_total", "Finalized recordings by outcome", "outcome"),

		recordingBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recording_size_bytes",
			Help:        "Size of finalized recordings in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(64*1024, 4, 8), // 64KB to 1GB
		}),
	}
}

// RecordTransition records a state transition of a connection.
func (m *Metrics) RecordTransition(kind, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind, to).Inc()
	if from == "Open" {
		m.openConnections.WithLabelValues(kind).Dec()
	}
	if to == "Open" {
		m.openConnections.WithLabelValues(kind).Inc()
	}
}

// RecordReconnect records a reconnection attempt.
func (m *Metrics) RecordReconnect(kind string) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(kind).Inc()
}

// RecordHeartbeatTimeout records a connection declared dead.
func (m *Metrics) RecordHeartbeatTimeout(kind string) {
	if m == nil {
		return
	}
	m.heartbeatTimeouts.WithLabelValues(kind).Inc()
}

// RecordReceived records an inbound frame of n bytes.
func (m *Metrics) RecordReceived(kind string, n int) {
	if m == nil {
		return
	}
	m.bytesReceived.WithLabelValues(kind).Add(float64(n))
}

// RecordSent records an outbound frame of n bytes.
func (m *Metrics) RecordSent(kind string, n int) {
	if m == nil {
		return
	}
	m.bytesSent.WithLabelValues(kind).Add(float64(n))
}

// RecordFrame records a decoded inbound frame by type.
func (m *Metrics) RecordFrame(kind, frameType string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(kind, frameType).Inc()
}

// RecordDropped records an inbound frame dropped for reason.
func (m *Metrics) RecordDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(kind, reason).Inc()
}

// SetActiveStreams sets the number of registered streams.
func (m *Metrics) SetActiveStreams(n int) {
	if m == nil {
		return
	}
	m.activeStreams.Set(float64(n))
}

// RecordSequenceGap records a video sequence discontinuity.
func (m *Metrics) RecordSequenceGap() {
	if m == nil {
		return
	}
	m.sequenceGaps.Inc()
}

// RecordIDRRequest records a keyframe request.
func (m *Metrics) RecordIDRRequest() {
	if m == nil {
		return
	}
	m.idrRequests.Inc()
}

// RecordRecording records a finalized recording.
func (m *Metrics) RecordRecording(outcome string, size int) {
	if m == nil {
		return
	}
	m.recordings.WithLabelValues(outcome).Inc()
	if size > 0 {
		m.recordingBytes.Observe(float64(size))
	}
}
