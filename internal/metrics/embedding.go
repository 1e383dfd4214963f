package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "perfun"

// Embedding holds the embedding provider metrics.
type Embedding struct {
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	TokensTotal           *prometheus.CounterVec
	ErrorsTotal           *prometheus.CounterVec
	BudgetTokensRemaining *prometheus.GaugeVec
	CacheTotal            *prometheus.CounterVec
	// SkippedTotal counts texts that never reached the provider, by reason.
	SkippedTotal *prometheus.CounterVec
}

// NewEmbedding creates embedding metrics and registers them on reg.
// A nil reg leaves them unregistered, which tests use.
func NewEmbedding(reg prometheus.Registerer) *Embedding {
	m := &Embedding{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		}, []string{"provider", "model", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "model"}),

		TokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		}, []string{"provider", "model", "type"}),

		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		}, []string{"provider", "model", "error_type"}),

		BudgetTokensRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "embedding_budget_tokens_remaining",
			Help:      "Remaining token budget",
		}, []string{"provider", "period"}),

		CacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		}, []string{"result"}),

		SkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_skipped_total",
			Help:      "Texts not sent for embedding",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestsTotal, m.RequestDuration, m.TokensTotal,
			m.ErrorsTotal, m.BudgetTokensRemaining, m.CacheTotal, m.SkippedTotal,
		)
	}
	return m
}
