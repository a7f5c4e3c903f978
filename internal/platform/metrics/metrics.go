// Package metrics defines the Prometheus instruments for the task subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tasks enqueued counter, labelled by task type.
	TasksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euler_tasks_enqueued_total",
			Help: "Total number of tasks enqueued",
		},
		[]string{"type"},
	)

	// Tasks claimed by workers, labelled by task type.
	TasksClaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euler_tasks_claimed_total",
			Help: "Total number of tasks claimed by workers",
		},
		[]string{"type"},
	)

	// Tasks acknowledged as completed.
	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euler_tasks_completed_total",
			Help: "Total number of tasks completed successfully",
		},
		[]string{"type"},
	)

	// Tasks returned to pending for a later retry.
	TasksRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euler_tasks_retried_total",
			Help: "Total number of tasks nacked for retry",
		},
		[]string{"type"},
	)

	// Tasks routed to the dead letter sink.
	TasksDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "euler_tasks_dead_lettered_total",
			Help: "Total number of tasks routed to the dead letter sink",
		},
		[]string{"type"},
	)

	// Stale claims reclaimed after their visibility deadline passed.
	TasksReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "euler_tasks_reclaimed_total",
			Help: "Total number of stale claims reclaimed",
		},
	)

	// Handler execution duration.
	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "euler_handler_duration_seconds",
			Help:    "Time spent executing task handlers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type", "outcome"},
	)
)
