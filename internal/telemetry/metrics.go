// Package telemetry holds the Prometheus collectors shared by the service.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_analyses_total",
		Help: "Merchant analyses run, by overall risk level.",
	}, []string{"level"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storelens_analysis_duration_seconds",
		Help:    "Wall time of a full analysis run.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})

	DegradedStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_degraded_steps_total",
		Help: "Pipeline steps that failed and fell back to their default.",
	}, []string{"step"})

	RisksDetectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_risks_detected_total",
		Help: "Detected risks by code and level.",
	}, []string{"code", "level"})

	RuleSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_rule_evaluations_skipped_total",
		Help: "Risk rule evaluations that failed and were treated as not detected.",
	}, []string{"code"})

	PersonaMatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_persona_matches_total",
		Help: "Persona matches by template, including the fallback persona.",
	}, []string{"template"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_http_requests_total",
		Help: "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	SubmissionsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storelens_submissions_throttled_total",
		Help: "Analysis requests rejected by the per-merchant throttle.",
	})

	BusMessagesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_bus_messages_dropped_total",
		Help: "Messages the in-process bus dropped because a subscriber buffer was full.",
	}, []string{"topic"})

	WorkerMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storelens_worker_messages_total",
		Help: "Report messages handled by the analysis worker, by outcome.",
	}, []string{"outcome"})
)
