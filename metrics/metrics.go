// Package metrics declares the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "babyzen_ai_requests_total",
			Help: "Total number of generative model calls",
		},
		[]string{"op", "outcome"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "babyzen_ai_request_duration_seconds",
			Help:    "Duration of generative model calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"op"},
	)

	ViewTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "babyzen_view_transitions_total",
			Help: "State transitions of the view controllers",
		},
		[]string{"view", "state"},
	)

	WebSocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "babyzen_websocket_sessions",
			Help: "Number of connected websocket sessions",
		},
	)

	Conversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "babyzen_conversations_active",
			Help: "Number of chat conversations held by the HTTP registry",
		},
	)
)

// ObserveAI records the outcome and latency of one model call.
func ObserveAI(op string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AIRequests.WithLabelValues(op, outcome).Inc()
	AIRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Transition counts a view entering state.
func Transition(view, state string) {
	ViewTransitions.WithLabelValues(view, state).Inc()
}
