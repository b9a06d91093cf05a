// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadminbot_operations_total",
			Help: "Dispatched store operations by name and outcome class",
		},
		[]string{"operation", "outcome"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wooadminbot_operation_duration_seconds",
			Help:    "Duration of dispatched store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadminbot_store_requests_total",
			Help: "Store API requests by method, resource and status class",
		},
		[]string{"method", "resource", "status"},
	)

	StoreRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wooadminbot_store_request_duration_seconds",
			Help:    "Duration of store API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	StoreRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wooadminbot_store_retries_total",
			Help: "Store API calls retried after a transport failure",
		},
	)

	ImageAttachTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadminbot_image_attach_total",
			Help: "Image attach attempts by result (ok or failing stage)",
		},
		[]string{"result"},
	)

	PendingUploads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wooadminbot_pending_uploads",
			Help: "Pending uploads held by the in-memory store",
		},
	)

	ClassifierRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadminbot_classifier_requests_total",
			Help: "Intent classification requests by result",
		},
		[]string{"result"},
	)

	ScheduledTaskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wooadminbot_scheduled_task_runs_total",
			Help: "Scheduled task executions by task and result",
		},
		[]string{"task", "result"},
	)
)
