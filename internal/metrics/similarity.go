package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Similarity Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardsim",
			Name:      "similarity_queries_total",
			Help:      "Total number of similar-card queries",
		},
		[]string{"status"}, // "ok" / "not_found" / "error"
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cardsim",
			Name:      "similarity_query_duration_seconds",
			Help:      "Similar-card query duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	ResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cardsim",
			Name:      "similarity_results_returned",
			Help:      "Number of cards returned per query",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	IndexCards = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cardsim",
			Name:      "index_cards",
			Help:      "Number of cards in the loaded similarity index",
		},
	)

	IndexTopics = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cardsim",
			Name:      "index_topics",
			Help:      "Latent dimension of the loaded similarity index",
		},
	)
)

var registerOnce sync.Once

// RegisterSimilarityMetrics registers the similarity metrics with the
// default registry. Safe to call more than once.
func RegisterSimilarityMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(QueriesTotal, QueryDuration, ResultsReturned, IndexCards, IndexTopics)
	})
}
