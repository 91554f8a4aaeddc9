package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cycle metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantwatch_cycles_total",
			Help: "Total number of evaluation cycles",
		},
		[]string{"domain", "status"}, // status: ok, failed, skipped
	)

	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantwatch_cycle_duration_seconds",
			Help:    "Duration of one evaluation and dispatch cycle",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"domain"},
	)

	// Violation metrics
	ViolationsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantwatch_violations_raised_total",
			Help: "Total number of new threshold violations raised",
		},
		[]string{"domain", "severity"},
	)

	// Dispatch metrics
	DispatchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantwatch_dispatch_attempts_total",
			Help: "Total number of alert delivery attempts",
		},
		[]string{"channel", "outcome"}, // outcome: success, failed, simulated
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantwatch_dispatch_duration_seconds",
			Help:    "Time taken for a single delivery attempt",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"channel"},
	)

	// Alert event publisher metrics
	AlertEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantwatch_alert_events_published_total",
			Help: "Total number of alert events published to the event stream",
		},
		[]string{"status"}, // status: success, failed
	)

	AlertPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plantwatch_alert_publish_retries_total",
			Help: "Total number of alert event publish retries",
		},
	)

	// Threshold rules reloads
	RulesReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantwatch_rules_reloads_total",
			Help: "Total number of threshold rules file reloads",
		},
		[]string{"status"}, // status: success, failed
	)

	// Prediction service metrics
	PredictionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantwatch_prediction_requests_total",
			Help: "Total number of prediction service consultations",
		},
		[]string{"status"}, // status: success, fallback
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantwatch_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
