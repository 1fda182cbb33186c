// Package metrics holds the Prometheus collectors for the recommender.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request channels.
const (
	ChannelForm  = "form"
	ChannelAPI   = "api"
	ChannelBatch = "batch"
)

// Request outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var (
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Recommendation requests by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Time spent producing recommendations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	RecommendCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_candidates",
			Help:    "Number of products scored per recommendation request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_cache_total",
			Help: "Recommendation cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ModelTrainingSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_training_seconds",
			Help: "Duration of the last model training run",
		},
	)

	InteractionTableRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "interaction_table_rows",
			Help: "Rows in the loaded interaction table",
		},
	)
)

// ObserveRequest records one finished recommendation request.
func ObserveRequest(channel, outcome string, started time.Time) {
	RecommendRequests.WithLabelValues(channel, outcome).Inc()
	RecommendDuration.WithLabelValues(channel).Observe(time.Since(started).Seconds())
}
