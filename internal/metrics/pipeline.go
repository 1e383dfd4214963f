package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline holds catalog run metrics.
type Pipeline struct {
	RecordsTotal   *prometheus.CounterVec
	SkippedTotal   *prometheus.CounterVec
	MatchesTotal   *prometheus.CounterVec
	BatchesTotal   *prometheus.CounterVec
	BatchDuration  prometheus.Histogram
	RecordsLost    prometheus.Counter
	SourceRequests *prometheus.CounterVec
	State          *prometheus.GaugeVec
}

// NewPipeline creates pipeline metrics and registers them on reg (nil skips registration).
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	m := &Pipeline{
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Source records by outcome",
		}, []string{"outcome"}),

		SkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Skipped source records by reason",
		}, []string{"reason"}),

		MatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_matches_total",
			Help:      "Reference dataset lookups by result",
		}, []string{"result"}),

		BatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Knowledge base batch submissions by status",
		}, []string{"status"}),

		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Batch upsert duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		RecordsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_lost_total",
			Help:      "Records dropped together with a failed batch",
		}),

		SourceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "HTTP requests to the product source",
		}, []string{"code", "method"}),

		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_state",
			Help:      "1 for the current pipeline state",
		}, []string{"state"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RecordsTotal, m.SkippedTotal, m.MatchesTotal,
			m.BatchesTotal, m.BatchDuration, m.RecordsLost,
			m.SourceRequests, m.State,
		)
	}
	return m
}
