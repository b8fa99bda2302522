package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered once at package init and shared across the
// provider client, the cache manager, and the refresher.
var (
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_provider_requests_total",
		Help: "Market-data provider requests by outcome",
	}, []string{"outcome"})

	ProviderRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockpulse_provider_retries_total",
		Help: "Provider request retries after transient failures",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_cache_lookups_total",
		Help: "Price cache lookups by result tier",
	}, []string{"tier"})

	RefreshOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpulse_refresh_total",
		Help: "Per-ticker refresh outcomes",
	}, []string{"status"})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockpulse_refresh_duration_seconds",
		Help:    "Duration of single-ticker refresh runs",
		Buckets: prometheus.DefBuckets,
	})

	AlertsCurrent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockpulse_alerts_last_batch",
		Help: "Alerts produced by the most recent batch refresh",
	})
)

// Outcome labels for ProviderRequests.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
)

// Tier labels for CacheLookups.
const (
	TierRedisHit  = "redis_hit"
	TierRedisMiss = "redis_miss"
	TierProvider  = "provider"
)
