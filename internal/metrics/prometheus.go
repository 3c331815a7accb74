package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the rankings worker

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbbas_runs_total",
			Help: "Total number of ranking runs",
		},
		[]string{"trigger", "status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tbbas_run_duration_seconds",
			Help:    "Duration of ranking runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// Source metrics
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbbas_source_fetch_total",
			Help: "Total number of ranking source fetches",
		},
		[]string{"source", "status"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tbbas_source_fetch_duration_seconds",
			Help:    "Duration of ranking source fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// Division metrics
	DivisionEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tbbas_division_entities",
			Help: "Distinct teams seen per division on the last run",
		},
		[]string{"division"},
	)

	DivisionPublished = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tbbas_division_published",
			Help: "Teams published per division on the last run",
		},
		[]string{"division"},
	)

	DivisionUnderFilled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tbbas_division_under_filled",
			Help: "1 when a division published fewer teams than its size",
		},
		[]string{"division"},
	)

	// Name resolution metrics
	UnresolvedNamesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbbas_unresolved_names_total",
			Help: "Team names that matched no other source, no district or no games",
		},
		[]string{"kind"},
	)

	IdentityCollisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbbas_identity_collisions_total",
			Help: "Records dropped because an earlier record of the same source held their identity",
		},
		[]string{"source"},
	)

	AmbiguousSynonyms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tbbas_ambiguous_synonyms",
			Help: "Number of ambiguous synonym entries in the loaded tables",
		},
	)

	DedupeRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbbas_dedupe_removed_total",
			Help: "Records merged away by deduplication",
		},
		[]string{"source"},
	)

	// Publish metrics
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbbas_publish_total",
			Help: "Total number of snapshot publications",
		},
		[]string{"target", "status"},
	)

	LastSuccessfulPublish = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tbbas_last_successful_publish_timestamp",
			Help: "Timestamp of the last successful snapshot publication",
		},
	)

	// Database metrics
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tbbas_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tbbas_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tbbas_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tbbas_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordRun records a ranking run
func RecordRun(trigger, status string, duration float64) {
	RunsTotal.WithLabelValues(trigger, status).Inc()
	RunDuration.Observe(duration)
}

// RecordSourceFetch records one source load
func RecordSourceFetch(source, status string, duration float64) {
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration)
}

// RecordDivision records the fill state of one fused division
func RecordDivision(division string, entities, published int, underFilled bool) {
	DivisionEntities.WithLabelValues(division).Set(float64(entities))
	DivisionPublished.WithLabelValues(division).Set(float64(published))
	if underFilled {
		DivisionUnderFilled.WithLabelValues(division).Set(1)
	} else {
		DivisionUnderFilled.WithLabelValues(division).Set(0)
	}
}

// RecordUnresolved counts names that could not be resolved
func RecordUnresolved(kind string, n int) {
	UnresolvedNamesTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordCollision counts a record dropped during identity alignment
func RecordCollision(source string) {
	IdentityCollisionsTotal.WithLabelValues(source).Inc()
}

// RecordDedupe counts records removed by deduplication
func RecordDedupe(source string, removed int) {
	DedupeRemovedTotal.WithLabelValues(source).Add(float64(removed))
}

// RecordPublish records a publication attempt
func RecordPublish(target, status string) {
	PublishTotal.WithLabelValues(target, status).Inc()

	if target == "file" && status == "success" {
		LastSuccessfulPublish.SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
