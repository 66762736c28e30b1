// Package telemetry provides Prometheus metrics for dotstatus.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dotstatus"

var (
	// PollsTotal counts single-target polls by outcome. result is
	// "ok", "fail" or "skipped".
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Total number of single-target polls",
		},
		[]string{"result"},
	)

	// ProbeFailuresTotal counts probe failures by reason code.
	ProbeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "probe_failures_total",
			Help:      "Total probe failures by reason",
		},
		[]string{"reason"},
	)

	// TickDuration tracks how long a full poll-all tick takes.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full poll-all tick",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// TicksSkippedTotal counts hourly firings dropped by misfire or
	// overlap coalescing.
	TicksSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_skipped_total",
			Help:      "Scheduler firings skipped",
		},
		[]string{"cause"},
	)
)
