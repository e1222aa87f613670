// Package metrics provides Prometheus metrics for shell sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command outcome labels.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusUnknown = "unknown"
)

// Recorder counts dispatched commands. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsterm_commands_total",
				Help: "Total number of shell commands by outcome",
			},
			[]string{"command", "status"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vfsterm_command_duration_seconds",
				Help:    "Shell command execution time in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"command"},
		),
	}
	r.registry.MustRegister(r.commandsTotal, r.commandDuration)
	return r
}

// RecordCommand records one command execution. Unrecognized commands are
// collapsed into a single label value to keep cardinality bounded.
func (r *Recorder) RecordCommand(command, status string, duration time.Duration) {
	if r == nil {
		return
	}
	if status == StatusUnknown {
		command = "unknown"
	}
	r.commandsTotal.WithLabelValues(command, status).Inc()
	r.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler exposing the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
