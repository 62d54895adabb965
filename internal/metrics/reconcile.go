package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/georecon/internal/domain"
	"github.com/kailas-cloud/georecon/internal/generation"
)

const namespace = "georecon"

// Reconcile and generation Prometheus metrics.
var (
	ReconcileBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_batches_total",
			Help:      "Total number of reconcile batches by outcome",
		},
		[]string{"outcome"},
	)

	ReconcileBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_batch_duration_seconds",
			Help:      "Reconcile batch duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ReconcileBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_batch_size",
			Help:      "Number of queries per reconcile batch",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	ReconcileQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_queries_total",
			Help:      "Total number of reconcile queries by status",
		},
		[]string{"status"},
	)

	ReconcileCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_candidates",
			Help:      "Candidates returned per query",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	GenerationEntities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_entities",
			Help:      "Entities in the active generation",
		},
	)

	GenerationBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_build_duration_seconds",
			Help:      "Time to load, index and publish a generation",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	RowsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Loader rows rejected by reason",
		},
		[]string{"reason"},
	)

	ReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Generation reloads by outcome",
		},
		[]string{"outcome"}, // "success" / "failure"
	)
)

var domainCollectors = []prometheus.Collector{
	ReconcileBatchesTotal, ReconcileBatchDuration, ReconcileBatchSize,
	ReconcileQueriesTotal, ReconcileCandidates,
	GenerationEntities, GenerationBuildDuration, RowsSkippedTotal, ReloadsTotal,
}

// Register adds the HTTP, reconcile and generation metrics to reg.
// Collectors already present in reg are left as they are.
func Register(reg prometheus.Registerer) error {
	for _, c := range append(httpCollectors, domainCollectors...) {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Observer feeds reconcile and reload outcomes into the metrics above.
type Observer struct{}

// BatchDone records one reconcile batch.
func (Observer) BatchDone(size int, d time.Duration, err error) {
	ReconcileBatchesTotal.WithLabelValues(batchOutcome(err)).Inc()
	if err == nil {
		ReconcileBatchSize.Observe(float64(size))
		ReconcileBatchDuration.Observe(d.Seconds())
	}
}

// QueryDone records one answered query.
func (Observer) QueryDone(status string, candidates int) {
	ReconcileQueriesTotal.WithLabelValues(status).Inc()
	ReconcileCandidates.Observe(float64(candidates))
}

// ReloadDone records a generation build.
func (Observer) ReloadDone(g *generation.Generation, d time.Duration, err error) {
	if err != nil {
		ReloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	ReloadsTotal.WithLabelValues("success").Inc()
	GenerationBuildDuration.Observe(d.Seconds())
	if g != nil {
		ObserveGeneration(g)
	}
}

// ObserveGeneration publishes the size and skip counters of a freshly activated generation.
func ObserveGeneration(g *generation.Generation) {
	GenerationEntities.Set(float64(g.Len()))
	for reason, n := range g.Stats().Skipped {
		RowsSkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

func batchOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrBatchTooLarge):
		return "batch_too_large"
	case errors.Is(err, domain.ErrNotReady):
		return "not_ready"
	default:
		return "error"
	}
}
