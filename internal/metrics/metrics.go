package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aguaviva_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"path", "status"},
	)

	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aguaviva_http_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	SamplesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aguaviva_samples_ingested_total",
			Help: "Total sample records successfully ingested",
		},
	)

	SamplesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aguaviva_samples_skipped_total",
			Help: "Total source rows skipped during ingestion",
		},
		[]string{"reason"},
	)

	SamplesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aguaviva_samples_loaded",
			Help: "Sample records in the in-memory record store",
		},
	)
)
