package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slackbridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Event handling
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbridge_events_total",
			Help: "Slack event deliveries by outcome",
		},
		[]string{"outcome"}, // retry, invalid, handshake, mention, unrecognized, malformed, failed
	)

	// Completion backend
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbridge_completions_total",
			Help: "Completion requests by backend, model vendor and outcome",
		},
		[]string{"provider", "vendor", "outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slackbridge_completion_duration_seconds",
			Help:    "Completion request latency",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)

	CompletionTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbridge_completion_tokens_total",
			Help: "Tokens consumed by completions",
		},
		[]string{"provider", "kind"}, // kind: prompt or completion
	)

	// Slack Web API
	SlackCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackbridge_slack_calls_total",
			Help: "Slack Web API calls by method and outcome",
		},
		[]string{"method", "outcome"},
	)
)
