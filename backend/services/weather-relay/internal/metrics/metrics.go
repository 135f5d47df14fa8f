package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Subscribers is the number of live connections in the registry.
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_subscribers",
			Help: "Current number of connected live-update subscribers",
		},
	)

	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_readings_ingested_total",
			Help: "Readings emitted by the ingestion source",
		},
		[]string{"source"},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_ingest_errors_total",
			Help: "Store or feed read failures seen by the ingestion source",
		},
		[]string{"source"},
	)

	ReadingsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_readings_suppressed_total",
			Help: "Readings dropped because their timestamp was already broadcast",
		},
	)

	Broadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_broadcasts_total",
			Help: "weatherUpdate broadcasts issued",
		},
	)

	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Per-subscriber delivery attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	BroadcastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_broadcast_duration_seconds",
			Help:    "Time spent offering one reading to a registry snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)
)
