// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivitiesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carecircle_activities_added_total",
		Help: "Activity records added to the feed by type",
	}, []string{"type"})

	ActivityStoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "carecircle_activity_store_records",
		Help: "Records currently held by the in-memory feed",
	})

	EngagementTracked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carecircle_engagement_events_total",
		Help: "Engagement events recorded locally by type",
	}, []string{"type"})

	EngagementBuckets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "carecircle_engagement_buckets",
		Help: "Per group and member engagement windows held in memory",
	})

	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carecircle_side_effect_failures_total",
		Help: "Best-effort remote writes that failed, by sink",
	}, []string{"sink"})

	AnalyticsRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carecircle_analytics_request_duration_seconds",
		Help:    "Analytics service reads made on behalf of API callers",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})
)
