package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JudgeVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brocode_judge_verdicts_total",
			Help: "Judge calls by backend and outcome",
		},
		[]string{"backend", "outcome"}, // outcome: "correct", "wrong", "error"
	)

	JudgeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brocode_judge_duration_ms",
			Help:    "Judge call duration in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"backend"},
	)

	SandboxRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brocode_sandbox_runs_total",
			Help: "Sandbox process runs by outcome",
		},
		[]string{"outcome"},
	)

	SandboxInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "brocode_sandbox_in_flight",
			Help: "Interpreter processes currently running",
		},
	)

	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brocode_sessions_started_total",
			Help: "Challenge sessions started",
		},
	)

	SessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brocode_sessions_ended_total",
			Help: "Challenge sessions ended by reason",
		},
		[]string{"reason"}, // "submitted", "expired"
	)

	ExecutionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brocode_executions_rejected_total",
			Help: "Execute calls refused before reaching the judge",
		},
		[]string{"reason"}, // "locked", "attempt_limit", "rate_limited"
	)
)
