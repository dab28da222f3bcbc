package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trip_provider_calls_total",
		Help: "Provider calls by provider, capability and outcome",
	}, []string{"provider", "capability", "outcome"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trip_provider_call_duration_seconds",
		Help:    "Provider call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "capability"})

	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trip_plans_total",
		Help: "Planning calls by outcome",
	}, []string{"outcome"})

	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trip_bookings_total",
		Help: "Booking attempts by type and terminal status",
	}, []string{"type", "status"})
)
