package metrics

import "github.com/prometheus/client_golang/prometheus"

// Fit Prometheus metrics.
var (
	FitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "redrock",
			Name:      "fit_duration_seconds",
			Help:      "Duration of a full per-target fit",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)

	MinimaRefinedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "redrock",
			Name:      "minima_refined_total",
			Help:      "Total number of accepted refined redshift minima",
		},
	)

	DegenerateSolvesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "redrock",
			Name:      "degenerate_solves_total",
			Help:      "Total number of singular least-squares solves flagged with the sentinel chi-squared",
		},
	)

	ArchetypeScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "redrock",
			Name:      "archetype_scans_total",
			Help:      "Total number of archetype re-scoring scans",
		},
		[]string{"spectype"},
	)

	FitCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "redrock",
			Name:      "fit_cache_total",
			Help:      "Fit result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// RegisterFitMetrics registers the fit metrics with the default registry.
// Called explicitly from the composition root (no init()).
func RegisterFitMetrics() {
	prometheus.MustRegister(FitDuration)
	prometheus.MustRegister(MinimaRefinedTotal)
	prometheus.MustRegister(DegenerateSolvesTotal)
	prometheus.MustRegister(ArchetypeScansTotal)
	prometheus.MustRegister(FitCacheTotal)
}
