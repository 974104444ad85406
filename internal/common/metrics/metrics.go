// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Skip reasons reported on SavingsScenariosSkipped.
const (
	SkipReasonHorizonTooShort = "horizon_too_short"
	SkipReasonOverCap         = "over_cap"
)

var (
	SavingsOutcomesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "savings_outcomes_generated_total",
			Help: "Total number of (product, scenario) outcomes projected",
		},
	)

	SavingsScenariosSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savings_scenarios_skipped_total",
			Help: "Products or scenarios left out of a suggestion, by reason",
		},
		[]string{"reason"},
	)

	SavingsCatalogCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savings_catalog_cache_total",
			Help: "Catalog cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	SavingsCatalogProducts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "savings_catalog_products",
			Help: "Number of products returned by the last catalog load",
		},
		[]string{"source"},
	)
)

// RecordSkips adds the skip counts of one suggestion run.
func RecordSkips(horizonTooShort, overCap int) {
	if horizonTooShort > 0 {
		SavingsScenariosSkipped.WithLabelValues(SkipReasonHorizonTooShort).Add(float64(horizonTooShort))
	}
	if overCap > 0 {
		SavingsScenariosSkipped.WithLabelValues(SkipReasonOverCap).Add(float64(overCap))
	}
}
