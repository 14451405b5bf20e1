// Package metrics provides Prometheus metrics for the PokeScan backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan Metrics
	ScanRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokescan_scan_requests_total",
			Help: "Total number of card scan requests",
		},
		[]string{"result"}, // "matched", "no_match", "invalid_input", "error"
	)

	ScanConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokescan_scan_confidence",
			Help:    "Confidence scores for scan matches",
			Buckets: []float64{0.1, 0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1.0},
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokescan_scan_duration_seconds",
			Help:    "Time taken to hash an image and scan the index",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	IndexedCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokescan_indexed_cards",
			Help: "Number of cards with a stored fingerprint",
		},
	)

	// Snapshot Worker Metrics
	SnapshotUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokescan_snapshot_updates_total",
			Help: "Total number of price snapshots recorded",
		},
	)

	SnapshotFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokescan_snapshot_failures_total",
			Help: "Total number of per-card snapshot failures (provider lookup failed)",
		},
	)

	SnapshotBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokescan_snapshot_batch_duration_seconds",
			Help:    "Time taken to run a daily snapshot batch",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	TrackedCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokescan_tracked_cards",
			Help: "Number of cards tracked by the daily snapshot job",
		},
	)

	// Provider Metrics
	ProviderRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokescan_provider_requests_total",
			Help: "Total number of Pokemon TCG API requests made",
		},
	)

	ProviderCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokescan_provider_cache_hits_total",
			Help: "Provider cache hit count",
		},
	)

	ProviderCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokescan_provider_cache_misses_total",
			Help: "Provider cache miss count",
		},
	)

	// Card Database Metrics
	CardDatabaseSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokescan_card_database_size",
			Help: "Number of unique cards in the database",
		},
	)
)
