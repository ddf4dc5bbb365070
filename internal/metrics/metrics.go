// Package metrics exposes prometheus counters for the relay's sample and
// send paths, served by the HTTP status server under /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's instrumentation on a private registry so tests
// can construct independent instances.
type Metrics struct {
	registry *prometheus.Registry

	SamplesReceived  prometheus.Counter
	SamplesPersisted prometheus.Counter
	StoreErrors      prometheus.Counter
	SendsAttempted   prometheus.Counter
	SendsRateLimited prometheus.Counter
	SendsRejected    prometheus.Counter
	SendErrors       prometheus.Counter
	LastBPM          prometheus.Gauge
}

// New creates and registers the relay metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SamplesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_relay_samples_received_total",
			Help: "Valid heart rate samples decoded from the device.",
		}),
		SamplesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_relay_samples_persisted_total",
			Help: "Samples written to the local database.",
		}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_relay_store_errors_total",
			Help: "Failed database inserts.",
		}),
		SendsAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_relay_osc_sends_total",
			Help: "Chatbox messages handed to the OSC transport.",
		}),
		SendsRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_relay_osc_rate_limited_total",
			Help: "Chatbox messages dropped by the rate gate.",
		}),
		SendsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_relay_osc_rejected_length_total",
			Help: "Chatbox messages rejected for exceeding the length limit.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_relay_osc_errors_total",
			Help: "Chatbox messages that failed in transport.",
		}),
		LastBPM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_relay_last_bpm",
			Help: "Most recently received heart rate.",
		}),
	}

	reg.MustRegister(
		m.SamplesReceived,
		m.SamplesPersisted,
		m.StoreErrors,
		m.SendsAttempted,
		m.SendsRateLimited,
		m.SendsRejected,
		m.SendErrors,
		m.LastBPM,
	)
	return m
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
