// Package metrics exposes Prometheus counters for the reminder pipeline.
// A nil *Metrics is valid and records nothing, so tests can skip wiring it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "georeminder_"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds every collector the service registers.
type Metrics struct {
	storeOps        *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	registrations   *prometheus.CounterVec
	disarms         *prometheus.CounterVec
	events          *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	processDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_operations_total",
				Help: "Reminder repository operations by operation and result",
			},
			[]string{"op", "result"},
		),
		storeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_latency_seconds",
				Help:    "Reminder repository latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "geofence_registrations_total",
				Help: "Geofence registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		disarms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "geofence_disarms_total",
				Help: "Geofence disarm requests by result",
			},
			[]string{"result"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "transition_events_total",
				Help: "Transition events received by disposition",
			},
			[]string{"disposition"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Per-trigger processing results: sent, stale or failed",
			},
			[]string{"result"},
		),
		processDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "transition_process_seconds",
				Help:    "Time to process one transition event",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.storeOps, m.storeLatency, m.registrations, m.disarms,
			m.events, m.notifications, m.processDuration,
		)
	}
	return m
}

// ObserveStore records one repository operation.
func (m *Metrics) ObserveStore(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, resultLabel(err)).Inc()
	m.storeLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// IncRegistration counts one registration attempt ending in outcome.
func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

// IncDisarm counts one disarm request.
func (m *Metrics) IncDisarm(err error) {
	if m == nil {
		return
	}
	m.disarms.WithLabelValues(resultLabel(err)).Inc()
}

// IncEvent counts one transition event by disposition
// (processed, transport_error, ignored, dropped).
func (m *Metrics) IncEvent(disposition string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(disposition).Inc()
}

// AddNotifications adds n per-trigger results with the given label.
func (m *Metrics) AddNotifications(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.notifications.WithLabelValues(result).Add(float64(n))
}

// ObserveProcess records how long one event took.
func (m *Metrics) ObserveProcess(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.processDuration.Observe(elapsed.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
