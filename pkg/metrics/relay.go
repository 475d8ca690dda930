package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics records what the outbox relay does with each batch.
type RelayMetrics struct {
	batchDuration   *prometheus.HistogramVec
	published       *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	deadLettered    *prometheus.CounterVec
	killSwitchTrips prometheus.Counter
	killSwitchOpen  prometheus.Gauge
	pendingEvents   prometheus.Gauge
}

// NewRelayMetrics registers the relay metrics on the provided registerer.
func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of outbox relay batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events successfully published to the broker.",
	}, []string{"event_type"})
	publishFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Publish attempts that failed and were scheduled for retry.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered_total",
		Help: "Outbox events moved to the dead letter queue.",
	}, []string{"reason"})
	killSwitchTrips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_kill_switch_trips_total",
		Help: "Times the relay kill switch engaged.",
	})
	killSwitchOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_kill_switch_open",
		Help: "Whether the relay kill switch is currently engaged (1) or not (0).",
	})
	pendingEvents := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending_events",
		Help: "Unpublished outbox rows at the end of the last poll.",
	})
	reg.MustRegister(batchDuration, published, publishFailures, deadLettered, killSwitchTrips, killSwitchOpen, pendingEvents)
	return &RelayMetrics{
		batchDuration:   batchDuration,
		published:       published,
		publishFailures: publishFailures,
		deadLettered:    deadLettered,
		killSwitchTrips: killSwitchTrips,
		killSwitchOpen:  killSwitchOpen,
		pendingEvents:   pendingEvents,
	}
}

// ObserveBatch records how long a relay batch took.
func (m *RelayMetrics) ObserveBatch(outcome string, duration time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncPublished increments the publish counter for the event type.
func (m *RelayMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncPublishFailure increments the retryable-failure counter for the event type.
func (m *RelayMetrics) IncPublishFailure(eventType string) {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDeadLettered increments the DLQ counter for the given reason.
func (m *RelayMetrics) IncDeadLettered(reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(reason)).Inc()
}

// KillSwitchTripped records a trip and flips the engaged gauge on.
func (m *RelayMetrics) KillSwitchTripped() {
	if m == nil || m.killSwitchTrips == nil {
		return
	}
	m.killSwitchTrips.Inc()
	m.killSwitchOpen.Set(1)
}

// KillSwitchResumed flips the engaged gauge off.
func (m *RelayMetrics) KillSwitchResumed() {
	if m == nil || m.killSwitchOpen == nil {
		return
	}
	m.killSwitchOpen.Set(0)
}

// SetPendingEvents records the backlog depth.
func (m *RelayMetrics) SetPendingEvents(count int64) {
	if m == nil || m.pendingEvents == nil {
		return
	}
	m.pendingEvents.Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
