package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayplan_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// InvitationTransitions counts invitation lifecycle transitions
	// (created|accepted|revoked) and their outcome (ok|error).
	InvitationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayplan_invitation_transitions_total",
			Help: "Total number of invitation state transitions",
		},
		[]string{"transition", "result"},
	)

	// EmailsSent counts outbound notification emails by template and outcome.
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayplan_emails_sent_total",
			Help: "Total number of notification emails dispatched",
		},
		[]string{"template", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayplan_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
