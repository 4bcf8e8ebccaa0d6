// Package services – Prometheus collectors
//
// This file exposes the domain-level metrics of the execution core. HTTP
// traffic metrics live in the middleware package; the collectors here track
// the scheduler loop and execution outcomes, which exist independently of any
// HTTP request.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// executionsTotal counts execution attempts by recorded outcome status.
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_executions_total",
			Help: "Total number of recurring order execution attempts by status.",
		},
		[]string{"status"},
	)

	// pollDuration records how long one scheduler poll takes, including every
	// sequential execution attempt it drives.
	pollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recurring_poll_duration_seconds",
			Help:    "Duration of scheduler polls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// pollFailures counts polls aborted because the due-orders lookup failed.
	pollFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recurring_poll_failures_total",
			Help: "Total number of polls aborted by a due-orders provider error.",
		},
	)

	// notificationsTotal counts notification signals raised through the sink.
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recurring_notifications_total",
			Help: "Total number of notification signals raised, by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(executionsTotal, pollDuration, pollFailures, notificationsTotal)
}
