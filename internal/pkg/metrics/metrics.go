package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustgate_sessions_total",
		Help: "The total number of game sessions analyzed",
	}, []string{"status"})

	SanctionsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trustgate_sanctions_total",
		Help: "Total sanctions issued by the engine",
	}, []string{"type"})

	DetectionsLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trustgate_detections_total",
		Help: "Sessions that scored below the normal trust threshold",
	})

	TrustScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trustgate_trust_score",
		Help:    "Distribution of session trust scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trustgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
