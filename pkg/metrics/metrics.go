// Package metrics holds the process-wide Prometheus collectors shared by
// the proof cache, claim cache, and HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "merkle_distributor_build_info",
			Help: "Build information of the distributor API",
		},
		[]string{"version", "commit", "date"},
	)

	ViewRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merkle_distributor_view_refresh_total",
			Help: "Total number of background view refreshes",
		},
		[]string{"view_type", "status"},
	)

	ViewRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merkle_distributor_view_refresh_duration_seconds",
			Help:    "Duration of background view refreshes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"view_type"},
	)

	ProofCacheNodesLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "merkle_distributor_proof_cache_nodes_loaded",
			Help: "Number of tree nodes currently held in the proof cache",
		},
		[]string{"shard_index"},
	)

	ClaimCacheAccountsTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "merkle_distributor_claim_cache_accounts_tracked",
			Help: "Number of claim status accounts currently tracked by the claim cache",
		},
	)

	ClaimCacheReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merkle_distributor_claim_cache_reconnects_total",
			Help: "Total number of websocket subscription reconnects",
		},
		[]string{"reason"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merkle_distributor_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "merkle_distributor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "merkle_distributor_rate_limited_total",
			Help: "Total number of requests rejected by the per-IP rate limiter",
		},
		[]string{"route"},
	)
)
