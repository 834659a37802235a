// Package metrics holds the Prometheus collectors of the portal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mpa_applications_submitted_total",
			Help: "Total number of tournament applications submitted",
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpa_status_transitions_total",
			Help: "Total number of applied status transitions by target status",
		},
		[]string{"status"},
	)

	TransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpa_status_transitions_failed_total",
			Help: "Status change requests refused, by error code",
		},
		[]string{"code"},
	)

	IDCollisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpa_identifier_collisions_total",
			Help: "Identifier candidates discarded because they were already taken",
		},
		[]string{"prefix"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpa_notifications_sent_total",
			Help: "Notifications handed to a delivery channel",
		},
		[]string{"channel"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpa_notifications_failed_total",
			Help: "Notifications that could not be delivered",
		},
		[]string{"channel"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mpa_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
