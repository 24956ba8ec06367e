// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal counts inbound chat messages by channel and route taken.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_messages_total",
			Help: "Inbound messages by channel and route",
		},
		[]string{"channel", "route"},
	)

	// TopicsTotal counts classifier results.
	TopicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_topics_total",
			Help: "Classified queries by topic",
		},
		[]string{"topic"},
	)

	// LocatorFetchesTotal counts reference document fetches by outcome.
	LocatorFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retriever_fetches_total",
			Help: "Reference document fetches by outcome",
		},
		[]string{"outcome"},
	)

	// RetrievalDuration tracks the time spent building a context blob.
	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retriever_duration_seconds",
			Help:    "Context retrieval duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20},
		},
	)

	// CompletionDuration tracks completion request duration.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "LLM completion request duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// IntakeStepsTotal counts intake turns by step and outcome.
	IntakeStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_steps_total",
			Help: "Intake turns by step and outcome",
		},
		[]string{"step", "outcome"},
	)

	// LeadDeliveriesTotal counts lead notifications by transport and outcome.
	LeadDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_deliveries_total",
			Help: "Lead notifications by transport and outcome",
		},
		[]string{"transport", "outcome"},
	)

	// CallToActionTotal counts replies that carried the contact suggestion.
	CallToActionTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_call_to_action_total",
			Help: "Replies that suggested the contact form",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for a completion request.
func RecordCompletion(model, status string, duration float64, tokensIn, tokensOut int) {
	CompletionDuration.WithLabelValues(model, status).Observe(duration)
	if tokensIn > 0 {
		LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
	}
}

// RecordLeadDelivery records the outcome of a lead notification.
func RecordLeadDelivery(transport string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	LeadDeliveriesTotal.WithLabelValues(transport, outcome).Inc()
}
