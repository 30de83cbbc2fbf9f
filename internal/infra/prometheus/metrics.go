package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters exposed on /metrics. Platform ids form a small fixed set,
// so the per-platform label cardinality stays bounded.
var (
	ClicksRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clicktally",
		Name:      "clicks_recorded_total",
		Help:      "Click events accepted and persisted, per platform.",
	}, []string{"platform"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clicktally",
		Name:      "login_attempts_total",
		Help:      "Admin login attempts, by outcome (success or failure).",
	}, []string{"outcome"})

	CSVExports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clicktally",
		Name:      "csv_exports_total",
		Help:      "Completed CSV history exports.",
	})

	HistoryQueries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clicktally",
		Name:      "history_queries_total",
		Help:      "Served paginated history queries.",
	})
)
