package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	SummaryCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summary_call_latency_ms",
			Help:    "LLM summarization call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	SummaryGeneratedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_summary_generated_count",
			Help: "Total number of meeting summaries generated",
		},
		[]string{"outcome"}, // outcome: success, fallback, failed
	)

	TaskCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_created_count",
			Help: "Total number of tasks created",
		},
		[]string{"source"}, // source: manual, ai, renewal
	)

	SweepEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_event_count",
			Help: "Total number of events published by the sweeper",
		},
		[]string{"routing_key"},
	)

	MQDeadLetterCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mq_dead_letter_count",
			Help: "Total number of messages routed to the dead letter queue",
		},
		[]string{"routing_key", "error_type"},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func RecordSummaryCallLatency(status string, duration time.Duration) {
	SummaryCallLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncrementSummaryGenerated(outcome string) {
	SummaryGeneratedCount.WithLabelValues(outcome).Inc()
}

func IncrementTaskCreated(source string) {
	TaskCreatedCount.WithLabelValues(source).Inc()
}

func IncrementSweepEvent(routingKey string) {
	SweepEventCount.WithLabelValues(routingKey).Inc()
}

func IncrementMQDeadLetter(routingKey, errorType string) {
	MQDeadLetterCount.WithLabelValues(routingKey, errorType).Inc()
}
