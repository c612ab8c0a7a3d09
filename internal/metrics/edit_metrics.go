package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EditsTotal counts completed edit pipelines.
	// Labels: status (success/error)
	EditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revoice_edits_total",
			Help: "Total number of edit pipelines run, by outcome",
		},
		[]string{"status"},
	)

	// EditErrorsTotal counts edit failures by stage and error code.
	// Labels: stage (synthesize/splice/reconcile/store), error_code
	EditErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revoice_edit_errors_total",
			Help: "Total number of edit pipeline errors by stage and error code",
		},
		[]string{"stage", "error_code"},
	)

	// StageDuration observes per-stage wall time in seconds.
	// Labels: stage (transcribe/clone/synthesize/splice/reconcile)
	// Buckets cover quick reconciles up to multi-minute transcriptions.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revoice_edit_stage_duration_seconds",
			Help:    "Edit pipeline stage duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// SessionsActive tracks how many sessions the registry currently holds.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "revoice_sessions_active",
			Help: "Number of active edit sessions",
		},
	)
)

// RecordEdit records a finished edit pipeline.
func RecordEdit(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	EditsTotal.WithLabelValues(status).Inc()
}

// RecordError records an edit failure for one stage.
func RecordError(stage, errorCode string) {
	EditErrorsTotal.WithLabelValues(stage, errorCode).Inc()
}

// RecordStageDuration records one stage's wall time in seconds.
func RecordStageDuration(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(n int) {
	SessionsActive.Set(float64(n))
}
