// Package metrics provides Prometheus metrics for Vigil.
// It tracks sample ingestion, rule evaluation, alert creation, suppression,
// and correlation to help identify bottlenecks and measure SLOs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "vigil"
)

// Sample metrics track the ingestion pipeline.
var (
	// SamplesReceivedTotal counts metric samples received by the ingest API.
	SamplesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_received_total",
			Help:      "Total number of metric samples received by the ingest API",
		},
		[]string{"organization_id"},
	)

	// SamplesPublishedTotal counts samples successfully published to the queue.
	SamplesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_published_total",
			Help:      "Total number of metric samples published to the message queue",
		},
		[]string{"organization_id"},
	)

	// SamplesProcessedTotal counts samples evaluated by the processor.
	SamplesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_processed_total",
			Help:      "Total number of metric samples processed",
		},
		[]string{"organization_id", "result"},
	)

	// QueuePublishLatency measures the queue publish call alone.
	QueuePublishLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_publish_latency_seconds",
			Help:      "Time to publish a batch to the message queue in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// SampleIngestLatency measures time from API receipt to queue publish.
	SampleIngestLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_ingest_latency_seconds",
			Help:      "Time from sample receipt to queue publish in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Rule engine metrics track evaluation and suppression.
var (
	// RulesEvaluatedTotal counts individual rule evaluations.
	RulesEvaluatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_evaluated_total",
			Help:      "Total number of rule evaluations performed",
		},
	)

	// BreachesDetectedTotal counts condition breaches entering the
	// sustained-breach window.
	BreachesDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaches_detected_total",
			Help:      "Total number of rule condition breaches detected",
		},
	)

	// AlertsSuppressedTotal counts alerts withheld, labeled by reason.
	AlertsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Total number of alerts suppressed",
		},
		[]string{"reason"},
	)

	// RuleEvaluationLatency measures time to evaluate one sample batch.
	RuleEvaluationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_evaluation_latency_seconds",
			Help:      "Time to evaluate a sample batch against all rules in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Alert metrics track alert lifecycle.
var (
	// AlertsCreatedTotal counts alerts created, labeled by type.
	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Total number of alerts created",
		},
		[]string{"type"},
	)

	// AlertsCorrelatedTotal counts alerts absorbed into correlated alerts.
	AlertsCorrelatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_correlated_total",
			Help:      "Total number of alerts matched into a correlated alert",
		},
	)

	// CorrelationLatency measures time to correlate a single alert.
	CorrelationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "correlation_latency_seconds",
			Help:      "Time to run correlation for a single alert in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	// NotificationsSentTotal counts notifications dispatched, labeled by channel.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications dispatched",
		},
		[]string{"channel"},
	)
)
