package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigation_weather_provider_calls_total",
			Help: "Total weather provider API calls",
		},
		[]string{"provider", "endpoint", "status"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irrigation_weather_provider_latency_seconds",
			Help:    "Weather provider API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	WeatherCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigation_weather_cache_total",
			Help: "Weather cache lookups by result",
		},
		[]string{"kind", "result"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrigation_recommendations_total",
			Help: "Irrigation recommendations served by verdict",
		},
		[]string{"crop", "verdict"},
	)

	IrrigationLogsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irrigation_logs_recorded_total",
			Help: "Irrigation activities logged",
		},
	)

	IrrigationWaterLiters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irrigation_logged_water_liters_total",
			Help: "Water volume reported through irrigation logs",
		},
	)
)
