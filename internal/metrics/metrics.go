// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "troop"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route template and status code.",
	}, []string{"method", "route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	RegistrationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_submitted_total",
		Help:      "Registration requests accepted from the public form.",
	})

	RegistrationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_decisions_total",
		Help:      "Approvals and rejections recorded by reviewers.",
	}, []string{"decision"})

	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failures_total",
		Help:      "Best-effort side effects that failed after a committed state change.",
	}, []string{"effect"})

	EmailRowsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_rows_queued_total",
		Help:      "Email rows accepted by a delivery path.",
	}, []string{"delivery", "type"})

	EmailDeliveryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_delivery_errors_total",
		Help:      "Email batches a delivery path refused.",
	}, []string{"delivery"})

	StoreDegraded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_degraded",
		Help:      "1 once a permission failure switched list reads to their fallback.",
	})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Scheduled job executions by outcome.",
	}, []string{"job", "result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Scheduled job run time.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"job"})
)
