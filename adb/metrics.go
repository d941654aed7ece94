package adb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droidkit_adb_commands_total",
			Help: "Total number of shell commands issued through a transport.",
		},
		[]string{"transport", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "droidkit_adb_command_duration_seconds",
			Help:    "Shell command round-trip time in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport"},
	)
)

func init() {
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(commandDuration)
}

func observeCommand(kind Kind, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	commandsTotal.WithLabelValues(string(kind), outcome).Inc()
	commandDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}
